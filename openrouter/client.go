// Package openrouter is a small client for the OpenRouter chat-completion API.
// It retries transient failures with exponential backoff and validates that
// every successful answer carries choices[0].message.content as a string.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client implements chat completions against OpenRouter.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	maxAttempts int
	retryDelay  time.Duration
	siteURL     string
	siteName    string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a new OpenRouter client. Unset fields fall back to the package defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openrouter: %w: API key is required", ErrAuthentication)
	}

	c := &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		siteURL:     cfg.SiteURL,
		siteName:    cfg.SiteName,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens == 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "openrouter")

	return c, nil
}

// Model returns the default model used when a request does not override it.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat completion. Network errors and 5xx answers are retried
// up to the configured number of attempts; everything else fails immediately.
func (c *Client) Complete(ctx context.Context, r Request) (Response, error) {
	if strings.TrimSpace(r.User) == "" {
		return Response{}, fmt.Errorf("openrouter: %w: user message is required", ErrInvalidRequest)
	}

	payload, err := json.Marshal(c.buildPayload(r))
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-2))
			c.logger.Warn("retrying chat completion",
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)

			if err := sleep(ctx, delay); err != nil {
				return Response{}, fmt.Errorf("openrouter: %w: %w", ErrNetwork, err)
			}
		}

		start := time.Now()
		resp, err := c.send(ctx, payload)
		if err == nil {
			c.logger.Debug("chat completion finished",
				"attempt", attempt,
				"model", resp.Model,
				"duration", time.Since(start),
				"response_len", len(resp.Content))
			return resp, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	c.logger.Error("chat completion failed", "error", lastErr)
	return Response{}, lastErr
}

func (c *Client) buildPayload(r Request) chatRequest {
	messages := make([]Message, 0, 2)
	if strings.TrimSpace(r.System) != "" {
		messages = append(messages, Message{Role: "system", Content: r.System})
	}
	messages = append(messages, Message{Role: "user", Content: r.User})

	req := chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: r.ResponseFormat,
	}
	if r.Model != "" {
		req.Model = r.Model
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.MaxTokens > 0 {
		req.MaxTokens = r.MaxTokens
	}

	return req
}

func (c *Client) send(ctx context.Context, payload []byte) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("openrouter: %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("openrouter: %w: read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, newAPIError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseResponse(body)
}

func parseResponse(body []byte) (Response, error) {
	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Response{}, formatError("response must be a JSON object")
	}

	if len(cr.Choices) == 0 {
		if cr.Error != nil && cr.Error.Message != "" {
			return Response{}, formatError("no choices returned: " + cr.Error.Message)
		}
		return Response{}, formatError("response must contain choices array")
	}

	msg := cr.Choices[0].Message
	if msg == nil {
		return Response{}, formatError("response must contain a message object")
	}

	content, ok := msg.Content.(string)
	if !ok || content == "" {
		return Response{}, formatError("message must contain content string")
	}

	return Response{
		Content: content,
		Model:   cr.Model,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
