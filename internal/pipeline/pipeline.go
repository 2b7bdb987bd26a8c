// Package pipeline runs one transcription job: audio object in, formatted
// transcript and notes page out.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"transcriber/internal/archive"
	"transcriber/internal/notes"
	"transcriber/internal/notify"
	"transcriber/internal/transcribe"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// FallbackTitle names transcripts whose title could not be generated.
const FallbackTitle = "Transcript"

// Store is the object storage the job reads audio from and writes text to.
type Store interface {
	Size(ctx context.Context, bucket, key string) (int64, error)
	Download(ctx context.Context, bucket, key, dir string) (string, error)
	PutText(ctx context.Context, bucket, key, body string) error
}

// Compressor shrinks audio before upload to the speech-to-text API.
type Compressor interface {
	Compress(ctx context.Context, in string) (string, error)
}

// Editor turns the raw transcript into the finished document.
type Editor interface {
	Format(ctx context.Context, raw string) (string, error)
	Title(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Publisher writes the document to the notes destination.
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, title, doc string) (*notes.Result, error)
}

// Indexer records finished transcripts for search.
type Indexer interface {
	Add(e archive.Entry) error
}

// Processor wires the collaborators of a job. Compressor, Notes and Archive
// are optional.
type Processor struct {
	Store       Store
	Compressor  Compressor
	Transcriber transcribe.Backend
	Editor      Editor
	Notifier    notify.Notifier
	Notes       Publisher
	Archive     Indexer
	Logger      *log.Logger

	OutputPrefix string
	Summarize    bool

	Now   func() time.Time
	NewID func() string
}

// Result describes a finished job.
type Result struct {
	JobID     string
	Bucket    string
	Key       string
	OutputKey string
	Title     string
	Document  string
	Notes     *notes.Result
}

// Process transcribes s3://bucket/key. Storage, transcription, formatting and
// save failures abort the job; everything after the save only warns.
func (p *Processor) Process(ctx context.Context, bucket, key string) (*Result, error) {
	p.defaults()
	res := &Result{JobID: p.NewID(), Bucket: bucket, Key: key}
	lg := p.Logger.With("job", res.JobID, "key", key)
	filename := path.Base(key)

	p.notify(ctx, lg, fmt.Sprintf("Transcribing %s", key))

	size, err := p.Store.Size(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	p.notify(ctx, lg, fmt.Sprintf("Estimated time to transcribe: %.1f minutes", EstimateMinutes(size)))

	dir, err := os.MkdirTemp("", "transcriber-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	audio, err := p.Store.Download(ctx, bucket, key, dir)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	lg.Info("downloaded audio", "bytes", size, "path", audio)

	if p.Compressor != nil {
		if out, err := p.Compressor.Compress(ctx, audio); err != nil {
			lg.Warn("compression failed, sending original audio", "err", err)
		} else {
			audio = out
		}
	}

	tr, err := p.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	lg.Info("transcribed", "chars", len(tr.Text), "duration", tr.Duration)
	p.notify(ctx, lg, fmt.Sprintf("File: %s. Transcribed audio to raw text.", filename))

	formatted, err := p.Editor.Format(ctx, tr.Text)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}

	title, err := p.Editor.Title(ctx, formatted)
	if err != nil || strings.TrimSpace(title) == "" {
		lg.Warn("title generation failed", "err", err, "fallback", FallbackTitle)
		title = FallbackTitle
	}
	res.Title = title

	res.Document = formatted
	if p.Summarize {
		summary, err := p.Editor.Summarize(ctx, formatted)
		switch {
		case err != nil:
			lg.Warn("summary failed", "err", err)
		case strings.TrimSpace(summary) != "":
			res.Document = WithSummary(summary, formatted)
		}
	}

	now := p.Now()
	res.OutputKey = p.OutputPrefix + OutputName(now, title)
	if err := p.Store.PutText(ctx, bucket, res.OutputKey, res.Document); err != nil {
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	lg.Info("saved transcript", "output", res.OutputKey)

	res.Notes = p.publish(ctx, lg, title, res.Document)

	if p.Archive != nil {
		entry := archive.Entry{ID: res.OutputKey, Title: title, Source: key, Text: res.Document, CreatedAt: now}
		if res.Notes != nil {
			entry.PageID = res.Notes.PageID
		}
		if err := p.Archive.Add(entry); err != nil {
			lg.Warn("archive index failed", "err", err)
		}
	}

	p.notify(ctx, lg, fmt.Sprintf("File: %s. Transcription ready. Visit in s3://%s/%s",
		path.Base(res.OutputKey), bucket, res.OutputKey))
	return res, nil
}

func (p *Processor) publish(ctx context.Context, lg *log.Logger, title, doc string) *notes.Result {
	if p.Notes == nil || !p.Notes.Configured() {
		lg.Warn("notes destination not configured, skipping publish")
		return nil
	}
	nr, err := p.Notes.Publish(ctx, title, doc)
	if err != nil {
		lg.Warn("notes publish failed", "err", err)
		return nr
	}
	if n := len(nr.FailedBatches); n > 0 {
		lg.Warn("notes page incomplete", "page", nr.PageID, "failed_batches", n)
	} else {
		lg.Info("published notes page", "page", nr.PageID, "blocks", nr.Written)
	}
	return nr
}

func (p *Processor) notify(ctx context.Context, lg *log.Logger, msg string) {
	lg.Info(msg)
	if err := p.Notifier.Notify(ctx, msg); err != nil {
		lg.Warn("notification failed", "err", err)
	}
}

func (p *Processor) defaults() {
	if p.Logger == nil {
		p.Logger = log.Default()
	}
	if p.Notifier == nil {
		p.Notifier = notify.Nop{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}
}

// EstimateMinutes guesses the job duration from the audio size: 10 MB/s of
// transcription plus 20 seconds of language-model time.
func EstimateMinutes(size int64) float64 {
	seconds := float64(size)/1024/1024/10 + 20
	return seconds / 60
}

// OutputName is "<YYYY-MM-DD_HH-MM-SS>_<slug>.txt".
func OutputName(t time.Time, title string) string {
	s := slug.Make(title)
	if s == "" {
		s = slug.Make(FallbackTitle)
	}
	return t.Format("2006-01-02_15-04-05") + "_" + s + ".txt"
}

// WithSummary prepends a summary section to doc.
func WithSummary(summary, doc string) string {
	return "## Summary\n\n" + strings.TrimSpace(summary) + "\n\n" + doc
}
