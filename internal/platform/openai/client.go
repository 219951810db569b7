package openai

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/envutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

const chatEndpoint = "/v1/chat/completions"

// ErrNotConfigured is returned by NewClient when no API key is available.
var ErrNotConfigured = errors.New("missing OPENAI_API_KEY")

// Client is the chat-completion surface the backend relies on.
type Client interface {
	// GenerateText returns the assistant reply for a system + user prompt.
	GenerateText(ctx context.Context, system, user string) (string, error)
	// GenerateJSON asks for a JSON object reply and returns the first object found in it.
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

// ConfigFrom reads OPENAI_* settings.
func ConfigFrom(src envutil.Source) Config {
	return Config{
		APIKey:      src.String("OPENAI_API_KEY", ""),
		BaseURL:     src.String("OPENAI_BASE_URL", ""),
		Model:       src.String("OPENAI_MODEL", "gpt-4-turbo-preview"),
		MaxTokens:   src.Int("OPENAI_MAX_TOKENS", 2000),
		Temperature: float32(src.Float("OPENAI_TEMPERATURE", 0.7)),
		Timeout:     src.Seconds("OPENAI_TIMEOUT_SECONDS", 120*time.Second),
		MaxRetries:  src.Int("OPENAI_MAX_RETRIES", 2),
	}
}

// chatAPI is the subset of *goopenai.Client used here.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type client struct {
	log         *logger.Logger
	api         chatAPI
	model       string
	maxTokens   int
	temperature float32
	maxRetries  int
	sleep       func(time.Duration)
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	oc := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}
	return newClient(log, goopenai.NewClientWithConfig(oc), cfg), nil
}

func newClient(log *logger.Logger, api chatAPI, cfg Config) *client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4-turbo-preview"
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		api:         api,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		sleep:       time.Sleep,
	}
}

func (c *client) GenerateText(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, nil)
}

func (c *client) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	text, err := c.complete(ctx, system, user, &goopenai.ChatCompletionResponseFormat{
		Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return nil, err
	}
	return ExtractJSONObject(text)
}

func (c *client) complete(ctx context.Context, system, user string, format *goopenai.ChatCompletionResponseFormat) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:      c.maxTokens,
		Temperature:    c.temperature,
		ResponseFormat: format,
	}

	backoff := time.Second
	start := time.Now()
	metrics := observability.Current()
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			metrics.ObserveLLMRequest(c.model, chatEndpoint, "200", time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("openai returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}

		status := statusCode(err)
		if !retryable(status) || attempt == c.maxRetries {
			metrics.ObserveLLMRequest(c.model, chatEndpoint, statusLabel(status), time.Since(start), 0, 0)
			return "", fmt.Errorf("openai chat completion failed: %w", err)
		}

		sleepFor := backoff + time.Duration(rand.Int64N(int64(backoff/2)+1))
		c.log.Warn("OpenAI request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"status", status,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		c.sleep(sleepFor)
		backoff *= 2
	}
	return "", fmt.Errorf("unreachable retry loop")
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// retryable treats transport failures (status 0), 429 and 5xx as transient.
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return fmt.Sprintf("%d", status)
}
