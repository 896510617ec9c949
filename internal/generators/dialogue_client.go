package generators

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/prompts"
)

const (
	defaultDialogueModel   = openai.GPT4oMini
	defaultDialogueTimeout = 30 * time.Second
	defaultMaxRetries      = 3
	defaultRetryDelay      = 1 * time.Second
)

// DialogueConfig configures the chat completion client
type DialogueConfig struct {
	APIKey      string
	BaseURL     string // empty means the OpenAI default
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // covers all attempts of one reply
	MaxRetries  int
	RetryDelay  time.Duration
}

// DialogueClient generates character replies through an OpenAI-compatible chat API
type DialogueClient struct {
	client    *openai.Client
	templates *prompts.TemplateEngine
	cfg       DialogueConfig
	logger    *zap.Logger
}

// NewDialogueClient creates a dialogue client
func NewDialogueClient(cfg DialogueConfig, templates *prompts.TemplateEngine, logger *zap.Logger) *DialogueClient {
	if cfg.Model == "" {
		cfg.Model = defaultDialogueModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.8
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDialogueTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &DialogueClient{
		client:    openai.NewClientWithConfig(config),
		templates: templates,
		cfg:       cfg,
		logger:    logger.Named("dialogue"),
	}
}

// GenerateDialogue renders the reply prompt and asks the model for an in-character line
func (c *DialogueClient) GenerateDialogue(ctx context.Context, req *interfaces.DialogueRequest) (string, error) {
	prompt, err := c.templates.Render(prompts.DialogueResponse, &prompts.TemplateContext{
		PersonalityType: req.PersonalityType,
		Traits:          req.Traits,
		Grade:           req.Grade,
		Question:        req.Question,
		Answer:          req.Answer,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := c.chat(ctx, prompt)
	aiRequestDuration.WithLabelValues("dialogue").Observe(time.Since(start).Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues("dialogue", "error").Inc()
		return "", fmt.Errorf("%w: %w", interfaces.ErrGeneration, err)
	}

	aiRequestsTotal.WithLabelValues("dialogue", "ok").Inc()
	return text, nil
}

// chat sends the completion request, retrying transient failures
func (c *DialogueClient) chat(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.DialogueSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("empty response: no choices")
			}
			text := strings.TrimSpace(resp.Choices[0].Message.Content)
			if text == "" {
				return "", errors.New("empty response content")
			}
			return text, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isRetryableError(err) {
			break
		}
		c.logger.Debug("retrying chat completion", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "rate limit")
}
