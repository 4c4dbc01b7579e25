// Package genai provides the generative model clients used as the
// last-resort provider tier.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("empty model response")

// Request is one prompt, optionally carrying an image for vision models.
type Request struct {
	System      string
	Prompt      string
	Image       []byte
	ImageMime   string
	MaxTokens   int
	Temperature float64
}

// Client generates a text completion for a request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Supported backends.
const (
	BackendNone      = "none"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// GeminiOpenAIEndpoint is the OpenAI-compatible endpoint of Google Gemini.
const GeminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config selects and configures a backend.
type Config struct {
	Backend  string
	APIKey   string
	Endpoint string
	Model    string
}

// New builds the configured client. It returns a nil Client when the backend
// is "none" or no API key is set.
func New(cfg Config, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" || backend == BackendNone || cfg.APIKey == "" {
		return nil, nil
	}

	switch backend {
	case BackendOpenAI:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = GeminiOpenAIEndpoint
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return NewOpenAIClient(cfg.APIKey, endpoint, model, logger), nil
	case BackendAnthropic:
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		return NewAnthropicClient(cfg.APIKey, cfg.Endpoint, model, logger), nil
	default:
		return nil, fmt.Errorf("unknown generative backend %q", cfg.Backend)
	}
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return 1024
}
