package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	genai "github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// Provider defines the interface for different LLM backends
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Default models per provider. Formatting wants the strongest model; titles
// are cheap.
const (
	GeminiModel      = "gemini-2.5-pro"
	GeminiTitleModel = "gemini-2.5-flash"
	AnthropicModel   = "claude-sonnet-4-5"
)

// NewProvider creates the appropriate LLM provider based on config
func NewProvider(ctx context.Context, providerName, apiKey, model string) (Provider, error) {
	providerName = strings.ToLower(providerName)
	switch providerName {
	case "gemini", "":
		if model == "" {
			model = GeminiModel
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("gemini init: %w", err)
		}
		return &GeminiProvider{client: client, model: model}, nil
	case "openai":
		if model == "" {
			model = openai.GPT4o
		}
		return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}, nil
	case "anthropic":
		if model == "" {
			model = AnthropicModel
		}
		return NewAnthropicProvider(apiKey, model, ""), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", providerName)
	}
}

// ==========================================
// Gemini Provider
// ==========================================
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.GenerativeModel(p.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// ==========================================
// OpenAI Provider
// ==========================================
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ==========================================
// Anthropic Provider
// ==========================================
type AnthropicProvider struct {
	client *resty.Client
	model  string
}

// NewAnthropicProvider talks to the Messages API. baseURL is for tests.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Minute).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetHeader("content-type", "application/json")
	return &AnthropicProvider{client: client, model: model}
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var out anthropicResponse
	var apiErr anthropicError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model":      p.model,
			"max_tokens": 16000,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic req error: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Provider: "anthropic", Code: resp.StatusCode(), Message: apiErr.Error.Message}
	}

	// Concatenate all text blocks (some models return multiple content blocks)
	var fullText string
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			fullText += block.Text
		}
	}
	if fullText == "" {
		return "", fmt.Errorf("anthropic: no text content in response")
	}
	return fullText, nil
}

// StatusError is a non-2xx reply from a provider reached over plain HTTP.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api error: %d - %s", e.Provider, e.Code, e.Message)
}
