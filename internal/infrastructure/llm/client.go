package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fashionassist/backend/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Options configures the language-model client.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint, typically
// a local Ollama server. An unreachable backend is a normal condition:
// Available() reports false and callers fall back to rule-based behavior.
type Client struct {
	http      *resty.Client
	model     string
	temp      float64
	maxTokens int
	available bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient creates a language-model client and probes the backend once.
// A failed probe is logged as a degraded-mode notice, never returned as an
// error.
func NewClient(opts Options) *Client {
	http := resty.New()
	http.SetBaseURL(opts.BaseURL)
	http.SetTimeout(opts.Timeout)

	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 150
	}

	c := &Client{
		http:      http,
		model:     opts.Model,
		temp:      opts.Temperature,
		maxTokens: opts.MaxTokens,
	}

	c.available = c.probe()
	if c.available {
		log.Printf("[LLM] backend ready: %s (%s)", opts.BaseURL, opts.Model)
	} else {
		log.Printf("[LLM] backend unreachable at %s, falling back to rule-based validation", opts.BaseURL)
	}

	return c
}

// probe checks whether the backend answers at all
func (c *Client) probe() bool {
	resp, err := c.http.R().Get("/v1/models")
	if err != nil {
		return false
	}
	return !resp.IsError()
}

// Available reports whether the language model backend responded at startup.
func (c *Client) Available() bool {
	return c.available
}

// Generate sends a system + user prompt and returns the raw generated text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if !c.available {
		return "", domain.ErrModelUnavailable
	}

	req := chatRequest{
		Model:       c.model,
		Temperature: c.temp,
		MaxTokens:   c.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	var result chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d", domain.ErrModelUnavailable, resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrModelUnavailable)
	}

	return result.Choices[0].Message.Content, nil
}
