package llm

import (
	"context"

	"github.com/coldspark/outreach/pkg/logger"
)

// OllamaClient wraps a local Ollama instance through its OpenAI-compatible
// endpoint. Useful for development without burning provider quota.
type OllamaClient struct {
	inner *OpenAIClient
}

// OllamaConfig for Ollama client
type OllamaConfig struct {
	BaseURL     string  // default: http://localhost:11434/v1
	Model       string  // default: llama3.1:8b
	Temperature float32 // default: 0.7
	MaxTokens   int     // default: 1000
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(cfg OllamaConfig, log logger.Logger) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1:8b"
	}

	// API key is ignored by Ollama but required by the client constructor
	inner := NewOpenAIClient(Config{
		APIKey:      "ollama",
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, log)

	return &OllamaClient{inner: inner}
}

// Chat sends a chat completion request to Ollama
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return c.inner.Chat(ctx, req)
}

// ChatJSON sends a chat completion request with JSON output. Ollama honors
// the OpenAI response_format field for models that support it.
func (c *OllamaClient) ChatJSON(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return c.inner.ChatJSON(ctx, req)
}

// Complete sends a simple completion request
func (c *OllamaClient) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	return c.inner.Complete(ctx, prompt, systemPrompt...)
}
