package pipeline

import (
	"context"
	"errors"
	"fmt"

	"transcriber/internal/archive"
	"transcriber/internal/config"
	"transcriber/internal/llm"
	"transcriber/internal/media"
	"transcriber/internal/notes"
	"transcriber/internal/notify"
	"transcriber/internal/storage"
	"transcriber/internal/transcribe"

	"github.com/charmbracelet/log"
)

// Build assembles a Processor from cfg. The returned close function releases
// the LLM clients and the archive index.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Processor, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	store, err := storage.New(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, nil, err
	}

	formatter, err := llm.NewProvider(ctx, cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeProvider(formatter))

	titleModel := cfg.TitleModel
	if titleModel == "" && (cfg.LLMProvider == "gemini" || cfg.LLMProvider == "") {
		titleModel = llm.GeminiTitleModel
	}
	titler := formatter
	if titleModel != "" {
		if titler, err = llm.NewProvider(ctx, cfg.LLMProvider, cfg.LLMAPIKey, titleModel); err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, closeProvider(titler))
	}

	p := &Processor{
		Store: store,
		Transcriber: transcribe.NewWhisper(transcribe.Options{
			APIKey:   cfg.GroqAPIKey,
			BaseURL:  cfg.GroqBaseURL,
			Model:    cfg.TranscribeModel,
			Language: cfg.TranscribeLanguage,
		}),
		Editor:       &llm.Editor{Formatter: formatter, Titler: titler},
		Notifier:     notify.Nop{},
		Notes:        NewPublisher(cfg, logger),
		Logger:       logger,
		OutputPrefix: cfg.OutputPrefix,
		Summarize:    cfg.SummaryEnabled,
	}
	if cfg.CompressAudio {
		p.Compressor = media.Compressor{FFmpeg: cfg.FFmpegPath}
	}
	if cfg.NtfyURL != "" {
		p.Notifier = notify.NewNtfy(cfg.NtfyURL, "Transcriber")
	}
	if cfg.ArchiveIndexPath != "" {
		idx, err := archive.Open(cfg.ArchiveIndexPath)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, idx.Close)
		p.Archive = idx
	}
	return p, closeAll, nil
}

// NewPublisher returns the notes uploader for cfg. Without Notion settings the
// uploader has no store and reports itself unconfigured.
func NewPublisher(cfg *config.Config, logger *log.Logger) *notes.Uploader {
	if !cfg.NotionEnabled() {
		return notes.NewUploader(nil, logger, notes.Options{})
	}
	store, err := notes.NewNotionStore(notes.NotionConfig{
		Token:         cfg.NotionToken,
		DatabaseID:    cfg.NotionDatabaseID,
		PageID:        cfg.NotionPageID,
		TitleProperty: cfg.NotionTitleProperty,
		Timeout:       cfg.NotionTimeout,
	})
	if err != nil {
		logger.Warn("notion store unavailable", "err", err)
		return notes.NewUploader(nil, logger, notes.Options{})
	}
	return notes.NewUploader(store, logger, notes.Options{})
}

func closeProvider(p llm.Provider) func() error {
	return func() error {
		if c, ok := p.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				return fmt.Errorf("close llm client: %w", err)
			}
		}
		return nil
	}
}
