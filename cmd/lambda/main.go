// Command lambda is the AWS Lambda entrypoint. It transcribes every audio
// object named in an S3 ObjectCreated event.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"transcriber/internal/config"
	"transcriber/internal/logger"
	"transcriber/internal/pipeline"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/charmbracelet/log"
)

type processor interface {
	Process(ctx context.Context, bucket, key string) (*pipeline.Result, error)
}

type handler struct {
	proc   processor
	prefix string
	logger *log.Logger
}

// Handle processes records in order. Failed records are joined into the
// returned error so the invocation is retried.
func (h *handler) Handle(ctx context.Context, ev events.S3Event) error {
	var errs []error
	for _, rec := range ev.Records {
		bucket := rec.S3.Bucket.Name
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			key = rec.S3.Object.Key
		}
		if !strings.HasPrefix(key, h.prefix) {
			h.logger.Debug("skipping object outside input prefix", "key", key, "prefix", h.prefix)
			continue
		}
		if strings.HasSuffix(key, "/") {
			continue
		}

		res, err := h.proc.Process(ctx, bucket, key)
		if err != nil {
			h.logger.Error("job failed", "bucket", bucket, "key", key, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		h.logger.Info("job complete", "job", res.JobID, "output", res.OutputKey)
	}
	return errors.Join(errs...)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lg := logger.New(logger.Options{Level: cfg.LogLevel, JSON: true})
	if err := cfg.Validate(); err != nil {
		lg.Fatal("invalid configuration", "err", err)
	}

	ctx := context.Background()
	proc, closeFn, err := pipeline.Build(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to build pipeline", "err", err)
	}
	defer closeFn()

	h := &handler{proc: proc, prefix: cfg.InputPrefix, logger: lg}
	lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
}
