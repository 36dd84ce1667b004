package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "WORKFLOW"

// Inference is the generation/classification backend used by the steps
type Inference interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
	Stream(ctx context.Context, messages []llm.Message, onFragment func(string) error) (string, error)
	Classify(ctx context.Context, messages []llm.Message, allowed []string) (string, error)
}

// Retriever returns up to k passages for query, best first
type Retriever interface {
	Search(ctx context.Context, query string, k int, diversify bool) ([]store.Passage, error)
}

// StateStore persists session state between runs. Load returns rag.ErrSessionNotFound for unknown ids.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (*store.SessionState, error)
	Save(ctx context.Context, sessionID string, state *store.SessionState) error
}

// SessionLocker grants at most one active run per session.
// Acquire fails with rag.ErrSessionBusy when the session is already locked.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// RunReport summarises a finished run
type RunReport struct {
	SessionID     string
	Question      string
	Outcome       store.Outcome
	Path          []store.Step
	RephraseCount int
	Resumed       bool
	Duration      time.Duration
	Err           error
}

// RunNotifier is told about every run that reached a terminal step or failed
type RunNotifier interface {
	RunFinished(ctx context.Context, report RunReport)
}

type Config struct {
	// MaxRephrase caps refinements per question
	MaxRephrase int
	// TopK passages are retrieved per attempt
	TopK int
	// GraderWorkers bounds concurrent grading calls
	GraderWorkers int
	// Topics the assistant is allowed to answer about
	Topics []string
}

func DefaultConfig() Config {
	return Config{
		MaxRephrase:   2,
		TopK:          3,
		GraderWorkers: 3,
		Topics:        []string{"Attention is all you need research paper"},
	}
}

type Engine struct {
	inference Inference
	retriever Retriever
	states    StateStore
	locks     SessionLocker

	cfg      Config
	logger   logger.ILogger
	metrics  *Metrics
	tracer   trace.Tracer
	notifier RunNotifier
	now      func() time.Time
	registry map[store.Step]stepFunc
}

type Option func(*Engine)

func WithLogger(l logger.ILogger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func WithNotifier(n RunNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func NewEngine(inference Inference, retriever Retriever, states StateStore, locks SessionLocker, cfg Config, opts ...Option) (*Engine, error) {
	if inference == nil || retriever == nil || states == nil || locks == nil {
		return nil, fmt.Errorf("%w: workflow engine requires inference, retrieval, state store and locker", rag.ErrConfiguration)
	}
	if cfg.MaxRephrase < 0 {
		return nil, fmt.Errorf("%w: max rephrase must not be negative, got %d", rag.ErrConfiguration, cfg.MaxRephrase)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.GraderWorkers <= 0 {
		cfg.GraderWorkers = 1
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("%w: at least one topic is required", rag.ErrConfiguration)
	}

	e := &Engine{
		inference: inference,
		retriever: retriever,
		states:    states,
		locks:     locks,
		cfg:       cfg,
		logger:    logger.NewNopLogger(),
		tracer:    otel.Tracer("multistep-rag-be/workflow"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = e.steps()
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Submit starts a run for question on sessionID. The session lock is held by the returned
// Stream until its fragments are drained or it is closed.
func (e *Engine) Submit(ctx context.Context, sessionID, question string) (*Stream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, rag.ErrEmptyQuestion
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: empty session id", rag.ErrSessionNotFound)
	}

	release, err := e.locks.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state, err := e.states.Load(ctx, sessionID)
	switch {
	case errors.Is(err, rag.ErrSessionNotFound):
		state = store.NewSessionState()
	case err != nil:
		release()
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	return newStream(e, sessionID, question, state, release), nil
}

// Result is a drained run
type Result struct {
	SessionID     string
	Outcome       store.Outcome
	Answer        string
	Documents     []store.Passage
	RephraseCount int
	Path          []store.Step
}

// Run submits question and drains the stream, concatenating every fragment into Answer
func (e *Engine) Run(ctx context.Context, sessionID, question string) (*Result, error) {
	stream, err := e.Submit(ctx, sessionID, question)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var answer strings.Builder
	for fragment, err := range stream.Fragments(ctx) {
		if err != nil {
			return nil, err
		}
		answer.WriteString(fragment)
	}

	res := stream.Result()
	res.Answer = answer.String()
	return res, nil
}
