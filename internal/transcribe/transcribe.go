// Package transcribe converts audio files to raw text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"transcriber/internal/backoff"

	"github.com/sashabaranov/go-openai"
)

// Segment is a timed portion of the transcript.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcript is the raw speech-to-text output.
type Transcript struct {
	Text     string
	Language string
	Duration time.Duration
	Segments []Segment
}

// Backend is a speech-to-text service.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

const defaultPrompt = "This is an audio recording. Please transcribe accurately with proper punctuation."

// Options configure the OpenAI-compatible backend.
type Options struct {
	APIKey   string
	BaseURL  string // e.g. https://api.groq.com/openai/v1
	Model    string
	Language string
	Prompt   string
	Retry    backoff.Policy
}

// Whisper calls an OpenAI-compatible /audio/transcriptions endpoint. Groq
// serves whisper-large-v3 behind this API.
type Whisper struct {
	client *openai.Client
	opts   Options
}

// NewWhisper builds a backend. BaseURL defaults to OpenAI's.
func NewWhisper(opts Options) *Whisper {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	if opts.Model == "" {
		opts.Model = openai.Whisper1
	}
	if opts.Prompt == "" {
		opts.Prompt = defaultPrompt
	}
	if opts.Retry == (backoff.Policy{}) {
		opts.Retry = backoff.Default
	}
	return &Whisper{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	req := openai.AudioRequest{
		Model:       w.opts.Model,
		FilePath:    audioPath,
		Prompt:      w.opts.Prompt,
		Temperature: 0,
		Language:    w.opts.Language,
		Format:      openai.AudioResponseFormatVerboseJSON,
	}

	var resp openai.AudioResponse
	err := backoff.Do(ctx, w.opts.Retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = w.client.CreateTranscription(ctx, req)
		if callErr != nil && !retryable(callErr) {
			return backoff.Permanent(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	tr := &Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}
	for _, s := range resp.Segments {
		tr.Segments = append(tr.Segments, Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return tr, nil
}

// retryable treats rate limits and server errors as transient; other API
// errors (bad key, unsupported file) are not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
