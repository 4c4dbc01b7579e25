package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates a client. An empty endpoint uses the public API.
func NewAnthropicClient(apiKey, endpoint, model string, logger *zap.Logger) *AnthropicClient {
	var opts []anthropic.ClientOption
	if endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(endpoint, "/")))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		logger: logger.Named("anthropic"),
	}
}

func (c *AnthropicClient) Model() string { return c.model }

// Generate sends the prompt, with the image as a base64 content block when present.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	var content []anthropic.MessageContent
	if len(req.Image) > 0 {
		mime := req.ImageMime
		if mime == "" {
			mime = "image/jpeg"
		}
		content = append(content, anthropic.MessageContent{
			Type: "image",
			Source: &anthropic.MessageContentSource{
				Type:      "base64",
				MediaType: mime,
				Data:      base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}
	content = append(content, anthropic.MessageContent{Type: "text", Text: &prompt})

	start := time.Now()
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    req.System,
		MaxTokens: maxTokens(req),
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: content},
		},
	})
	if err != nil {
		c.logger.Warn("messages request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", fmt.Errorf("create messages: %w", err)
	}

	text := textOf(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("messages request done",
		zap.String("model", c.model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

func textOf(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
