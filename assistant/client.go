package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultEndpoint = "https://models.inference.ai.azure.com"
	DefaultModel    = "gpt-4o-mini"
	DefaultTimeout  = 30 * time.Second
)

// ErrNoToken is returned by every call when no API token is configured.
var ErrNoToken = errors.New("API token not configured")

// Request is one chat completion call: a fixed system prompt, one user
// message and the sampling budget for the operation.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer returns the text of the first choice for req.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type ClientConfig struct {
	Token    string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client talks to an OpenAI compatible chat completion endpoint. Requests
// are never retried.
type Client struct {
	api   *openai.Client
	model string
	ready bool
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Token == "" {
		log.Warn().Msg("AI token not set, AI features will return errors")
	}

	config := openai.DefaultConfig(cfg.Token)
	config.BaseURL = cfg.Endpoint
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: cfg.Model,
		ready: cfg.Token != "",
	}
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.ready {
		return "", ErrNoToken
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        1.0,
	})
	if err != nil {
		err = upstreamError(err)
		log.Error().Err(err).Str("model", c.model).Msg("chat completion failed")
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "No response generated", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamError reduces a client error to the message reported to callers.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("API request failed with status %d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("API request failed with status %d", reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("Request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.New("Request timed out")
	}
	return fmt.Errorf("Request failed: %v", err)
}
