package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"transcriber/internal/backoff"

	"github.com/sashabaranov/go-openai"
)

const formatPrompt = `Transcribe this meeting. Exclude nothing.

1. Perfect grammar and punctuation
2. Proper paragraph breaks for topic changes
3. Correct capitalization and spelling
4. Remove filler words (um, uh, like) but keep all meaningful content
5. Format as clear, readable markdown with headings where appropriate

Keep the original meaning and tone entirely.

Raw transcription:
%s`

const completenessPrompt = `You've missed content. Exclude nothing.

Original raw transcription:
%s

Your previous formatted version:
%s

Please identify and return ONLY any content that was missed or excluded from the formatted version. If nothing was missed, return an empty string.`

const titlePrompt = `Generate a title for the following transcription.
Reply only with the title, no other text.
<transcription>%s</transcription>`

const summaryPrompt = `Summarize the following transcription in a short list of bullet points covering decisions, action items and key topics.
Reply only with the bullet points in markdown.
<transcription>%s</transcription>`

const maxTitleLen = 200

// Editor turns a raw transcript into a finished document.
type Editor struct {
	Formatter Provider
	Titler    Provider // Formatter when nil
	Retry     backoff.Policy // backoff.Default when zero
}

// Format cleans up raw in two passes: a formatting pass, then a pass asking
// the model for anything the first one dropped. Additions are appended after
// a blank line.
func (e *Editor) Format(ctx context.Context, raw string) (string, error) {
	first, err := e.generate(ctx, e.Formatter, fmt.Sprintf(formatPrompt, raw))
	if err != nil {
		return "", fmt.Errorf("format transcript: %w", err)
	}
	first = stripCodeFence(first)

	missed, err := e.generate(ctx, e.Formatter, fmt.Sprintf(completenessPrompt, raw, first))
	if err != nil {
		return "", fmt.Errorf("completeness check: %w", err)
	}
	return mergeMissed(first, missed), nil
}

// Title asks for a short title and cleans it up.
func (e *Editor) Title(ctx context.Context, text string) (string, error) {
	p := e.Titler
	if p == nil {
		p = e.Formatter
	}
	out, err := e.generate(ctx, p, fmt.Sprintf(titlePrompt, text))
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	title := cleanTitle(out)
	if title == "" {
		return "", errors.New("generate title: empty title")
	}
	return title, nil
}

// Summarize returns a bullet-point summary of text.
func (e *Editor) Summarize(ctx context.Context, text string) (string, error) {
	out, err := e.generate(ctx, e.Formatter, fmt.Sprintf(summaryPrompt, text))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(stripCodeFence(out)), nil
}

func (e *Editor) generate(ctx context.Context, p Provider, prompt string) (string, error) {
	if p == nil {
		return "", errors.New("no LLM provider configured")
	}
	policy := e.Retry
	if policy == (backoff.Policy{}) {
		policy = backoff.Default
	}
	var out string
	err := backoff.Do(ctx, policy, func(ctx context.Context) error {
		var callErr error
		out, callErr = p.Generate(ctx, prompt)
		if callErr != nil && !retryable(callErr) {
			return backoff.Permanent(callErr)
		}
		return callErr
	})
	return out, err
}

// mergeMissed appends the completeness pass output unless it is empty.
func mergeMissed(formatted, missed string) string {
	missed = strings.TrimSpace(stripCodeFence(missed))
	if missed == "" || missed == `""` || missed == "''" {
		return formatted
	}
	return formatted + "\n\n" + missed
}

// stripCodeFence removes a ```lang ... ``` wrapper around the whole reply.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// cleanTitle keeps the first non-empty line without markdown or quotes.
func cleanTitle(raw string) string {
	var line string
	for _, l := range strings.Split(stripCodeFence(raw), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = strings.TrimLeft(line, "# ")
	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(strings.TrimSpace(line), `"'*_`+"`")
	line = strings.TrimSuffix(line, ".")
	line = strings.TrimSpace(line)

	r := []rune(line)
	if len(r) > maxTitleLen {
		line = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	return line
}

// retryable treats rate limits, server errors and transport failures as
// transient.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return transientStatus(statusErr.Code)
	}
	return true
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
