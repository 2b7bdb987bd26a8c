// Package config loads pipeline settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultInputPrefix     = "audio/"
	DefaultOutputPrefix    = "transcriptions/"
	DefaultGroqBaseURL     = "https://api.groq.com/openai/v1"
	DefaultTranscribeModel = "whisper-large-v3"
	DefaultLLMProvider     = "gemini"
)

// Config holds everything a job needs. Optional integrations are disabled by
// leaving their keys empty.
type Config struct {
	AWSRegion    string
	InputPrefix  string
	OutputPrefix string

	GroqAPIKey         string
	GroqBaseURL        string
	TranscribeModel    string
	TranscribeLanguage string

	LLMProvider    string
	LLMAPIKey      string
	LLMModel       string
	TitleModel     string
	SummaryEnabled bool

	CompressAudio bool
	FFmpegPath    string

	NtfyURL string

	NotionToken         string
	NotionDatabaseID    string
	NotionPageID        string
	NotionTitleProperty string
	NotionTimeout       time.Duration

	ArchiveIndexPath string

	LogLevel string
	LogJSON  bool
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is normal in Lambda

	cfg := &Config{
		AWSRegion:    os.Getenv("AWS_REGION"),
		InputPrefix:  envOr("INPUT_PREFIX", DefaultInputPrefix),
		OutputPrefix: envOr("OUTPUT_PREFIX", DefaultOutputPrefix),

		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:        envOr("GROQ_BASE_URL", DefaultGroqBaseURL),
		TranscribeModel:    envOr("TRANSCRIBE_MODEL", DefaultTranscribeModel),
		TranscribeLanguage: envOr("TRANSCRIBE_LANGUAGE", "en"),

		LLMProvider: strings.ToLower(envOr("LLM_PROVIDER", DefaultLLMProvider)),
		LLMModel:    os.Getenv("LLM_MODEL"),
		TitleModel:  os.Getenv("TITLE_MODEL"),

		FFmpegPath: envOr("FFMPEG_PATH", "ffmpeg"),
		NtfyURL:    os.Getenv("NTFY_URL"),

		NotionToken:         os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:    os.Getenv("NOTION_DATABASE_ID"),
		NotionPageID:        os.Getenv("NOTION_PAGE_ID"),
		NotionTitleProperty: os.Getenv("NOTION_TITLE_PROPERTY"),

		ArchiveIndexPath: os.Getenv("ARCHIVE_INDEX_PATH"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}
	cfg.LLMAPIKey = llmKey(cfg.LLMProvider)

	var err error
	if cfg.SummaryEnabled, err = envBool("SUMMARY_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.CompressAudio, err = envBool("COMPRESS_AUDIO", true); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = envBool("LOG_JSON", false); err != nil {
		return nil, err
	}
	if cfg.NotionTimeout, err = envDuration("NOTION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every job needs.
func (c *Config) Validate() error {
	var errs []error
	if c.GroqAPIKey == "" {
		errs = append(errs, errors.New("GROQ_API_KEY is required"))
	}
	if c.LLMAPIKey == "" {
		errs = append(errs, fmt.Errorf("an API key for LLM provider %q is required (LLM_API_KEY)", c.LLMProvider))
	}
	if strings.HasPrefix(c.OutputPrefix, c.InputPrefix) {
		errs = append(errs, errors.New("OUTPUT_PREFIX must not be inside INPUT_PREFIX"))
	}
	return errors.Join(errs...)
}

// NotionEnabled reports whether notes publishing has credentials and a parent.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && (c.NotionDatabaseID != "" || c.NotionPageID != "")
}

// llmKey prefers LLM_API_KEY and falls back to the provider's usual variable.
func llmKey(provider string) string {
	if k := os.Getenv("LLM_API_KEY"); k != "" {
		return k
	}
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
