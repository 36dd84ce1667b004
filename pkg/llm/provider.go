package llm

import (
	"context"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	JSONFormat  bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithJSONFormat asks the backend to constrain its output to a JSON object
func WithJSONFormat() Option {
	return func(o *Options) {
		o.JSONFormat = true
	}
}

// ChunkHandler receives streamed content. Returning an error stops the stream.
type ChunkHandler func(chunk string) error

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream is Chat with incremental delivery; the full response is returned at the end
	ChatStream(ctx context.Context, history []Message, onChunk ChunkHandler, options ...Option) (string, error)
}

// StatusError is returned when the backend answers with a non-success HTTP status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm backend returned status %d: %s", e.StatusCode, e.Body)
}
