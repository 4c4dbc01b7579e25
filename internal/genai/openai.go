package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates a client for the endpoint, e.g. Gemini's
// OpenAI-compatible API.
func NewOpenAIClient(apiKey, endpoint, model string, logger *zap.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(endpoint, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger.Named("openai"),
	}
}

func (c *OpenAIClient) Model() string { return c.model }

// Generate sends the prompt, attaching the image as a data URL when present.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.Image) > 0 {
		mime := req.ImageMime
		if mime == "" {
			mime = "image/jpeg"
		}
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
				Detail: openai.ImageURLDetailAuto,
			}},
		}
	} else {
		user.Content = req.Prompt
	}
	messages = append(messages, user)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens(req),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		c.logger.Warn("completion failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("completion done",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}
