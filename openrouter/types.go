package openrouter

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultTimeout     = 60 * time.Second

	maxResponseBytes = 10 * 1024 * 1024
)

// Config holds configuration for the OpenRouter client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// MaxAttempts is the total number of attempts for transient failures, first call included.
	MaxAttempts int
	RetryDelay  time.Duration

	SiteURL  string // Optional: sent as HTTP-Referer
	SiteName string // Optional: sent as X-Title

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat enforces structured output.
type ResponseFormat struct {
	Type       string      `json:"type"` // "json_schema"
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema defines the structured output schema.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// NewJSONSchemaFormat wraps a schema into a json_schema response format.
func NewJSONSchemaFormat(name string, schema map[string]any) *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   name,
			Strict: true,
			Schema: schema,
		},
	}
}

// Request describes one chat completion call. Zero-valued overrides fall back to the client defaults.
type Request struct {
	System         string
	User           string
	ResponseFormat *ResponseFormat

	Model       string
	Temperature *float64
	MaxTokens   int
}

// Response is the validated result of a chat completion.
type Response struct {
	Content string
	Model   string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// chatResponse mirrors only the fields the client validates. Content is decoded
// as any so a non-string content is reported as a format error instead of a decode error.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message *struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
