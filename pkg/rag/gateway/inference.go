package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/rag"
)

const (
	DefaultTimeout       = 60 * time.Second
	DefaultStreamTimeout = 5 * time.Minute

	// room for {"score": "yes"} plus whitespace
	labelMaxTokens = 32
)

type InferenceConfig struct {
	// Timeout bounds one Generate or Classify call
	Timeout time.Duration
	// StreamTimeout bounds one streamed generation from request to last fragment
	StreamTimeout time.Duration
	Temperature   float64
	// LabelModel overrides the backend model for Classify; empty uses the provider default
	LabelModel string
}

// InferenceGateway is the workflow-facing view of an LLM backend.
// Every call runs under its own deadline and failures are mapped onto the rag error taxonomy.
type InferenceGateway struct {
	provider llm.LLMProvider
	cfg      InferenceConfig
}

func NewInferenceGateway(provider llm.LLMProvider, cfg InferenceConfig) *InferenceGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}
	return &InferenceGateway{provider: provider, cfg: cfg}
}

// Generate returns the trimmed completion for messages. Empty content is an error.
func (g *InferenceGateway) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	out, err := g.provider.Chat(callCtx, messages, llm.WithTemperature(g.cfg.Temperature))
	if err != nil {
		return "", classifyError(callCtx, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %w", rag.ErrGatewayUnavailable, rag.ErrEmptyCompletion)
	}
	return out, nil
}

// Stream forwards each fragment to onFragment as it arrives and returns the full completion.
// An error returned by onFragment aborts the call and is returned unchanged.
func (g *InferenceGateway) Stream(ctx context.Context, messages []llm.Message, onFragment func(string) error) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.StreamTimeout)
	defer cancel()

	var sinkErr error
	out, err := g.provider.ChatStream(callCtx, messages, func(chunk string) error {
		if err := onFragment(chunk); err != nil {
			sinkErr = err
			return err
		}
		return nil
	}, llm.WithTemperature(g.cfg.Temperature))

	if sinkErr != nil {
		return "", sinkErr
	}
	if err != nil {
		return "", classifyError(callCtx, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %w", rag.ErrGatewayUnavailable, rag.ErrEmptyCompletion)
	}
	return out, nil
}

// Classify asks for exactly one of allowed and returns it in its canonical (allowed) spelling.
func (g *InferenceGateway) Classify(ctx context.Context, messages []llm.Message, allowed []string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	opts := []llm.Option{llm.WithTemperature(0), llm.WithJSONFormat(), llm.WithMaxTokens(labelMaxTokens)}
	if g.cfg.LabelModel != "" {
		opts = append(opts, llm.WithModel(g.cfg.LabelModel))
	}

	out, err := g.provider.Chat(callCtx, messages, opts...)
	if err != nil {
		return "", classifyError(callCtx, err)
	}

	return ParseLabel(out, allowed)
}

// classifyError maps a provider failure onto ErrGatewayTimeout or ErrGatewayUnavailable.
// Cancellation by the caller is passed through.
func classifyError(callCtx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", rag.ErrGatewayTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", rag.ErrGatewayTimeout, err)
	}

	return fmt.Errorf("%w: %v", rag.ErrGatewayUnavailable, err)
}
