package workflow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"multistep-rag-be/pkg/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrStreamConsumed is yielded when Fragments is ranged over a second time
var ErrStreamConsumed = errors.New("workflow stream already consumed")

// errStopped aborts the current step when the consumer stops ranging
var errStopped = errors.New("fragment consumer stopped")

// Stream is one run of the workflow. Its fragment sequence is finite and can be consumed once.
type Stream struct {
	engine    *Engine
	sessionID string
	question  string
	state     *store.SessionState

	release     func()
	releaseOnce sync.Once
	consumed    atomic.Bool

	mu     sync.Mutex
	result *Result
}

func newStream(e *Engine, sessionID, question string, state *store.SessionState, release func()) *Stream {
	return &Stream{
		engine:    e,
		sessionID: sessionID,
		question:  question,
		state:     state,
		release:   release,
	}
}

// Close releases the session lock. Safe to call more than once and after the stream is drained.
func (s *Stream) Close() {
	s.releaseOnce.Do(s.release)
}

// Result describes the finished run, or nil when the run has not completed successfully
func (s *Stream) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	res := *s.result
	return &res
}

// Fragments executes the run lazily while the caller ranges over it. A failed run yields
// exactly one non-nil error as its last element.
func (s *Stream) Fragments(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}
		defer s.Close()

		emit := func(fragment string) error {
			if fragment == "" {
				return nil
			}
			if !yield(fragment, nil) {
				return errStopped
			}
			return nil
		}

		if err := s.run(ctx, emit); err != nil && !errors.Is(err, errStopped) {
			yield("", err)
		}
	}
}

func (s *Stream) run(ctx context.Context, emit func(string) error) error {
	e := s.engine
	started := e.now()

	committed := s.state
	step := store.StepRewrite
	resumed := false
	if committed.Checkpoint.Pending && committed.Question == s.question && committed.Checkpoint.Next != "" {
		step = committed.Checkpoint.Next
		resumed = true
	}

	e.logger.Info(logModule, "run started", map[string]interface{}{
		"session_id": s.sessionID,
		"first_step": string(step),
		"resumed":    resumed,
	})

	var path []store.Step
	report := func(outcome store.Outcome, err error) {
		r := RunReport{
			SessionID:     s.sessionID,
			Question:      s.question,
			Outcome:       outcome,
			Path:          slices.Clone(path),
			RephraseCount: committed.RephraseCount,
			Resumed:       resumed,
			Duration:      e.now().Sub(started),
			Err:           err,
		}
		e.metrics.observeRun(r)
		if e.notifier != nil {
			e.notifier.RunFinished(ctx, r)
		}
	}

	for {
		work := committed.Clone()
		next, err := s.execute(ctx, step, work, emit)
		path = append(path, step)

		if err != nil {
			if errors.Is(err, errStopped) {
				e.logger.Warn(logModule, "consumer stopped before run finished", map[string]interface{}{
					"session_id": s.sessionID,
					"step":       string(step),
				})
				report(store.OutcomeNone, err)
				return err
			}
			stepErr := &StepError{Step: step, Path: slices.Clone(path), Err: err}
			e.logger.Error(logModule, "step failed", map[string]interface{}{
				"session_id": s.sessionID,
				"step":       string(step),
				"path":       pathString(path),
				"error":      err.Error(),
			})
			report(store.OutcomeNone, stepErr)
			return stepErr
		}

		work.UpdatedAt = e.now()
		if step.Terminal() {
			work.Checkpoint = store.Checkpoint{Next: store.StepEnd, Pending: false}
		} else {
			work.Checkpoint = store.Checkpoint{Next: next, Pending: true}
		}

		if err := e.states.Save(ctx, s.sessionID, work); err != nil {
			stepErr := &StepError{Step: step, Path: slices.Clone(path), Err: fmt.Errorf("save checkpoint: %w", err)}
			report(store.OutcomeNone, stepErr)
			return stepErr
		}
		committed = work

		if step.Terminal() {
			s.mu.Lock()
			s.result = &Result{
				SessionID:     s.sessionID,
				Outcome:       committed.Outcome,
				Documents:     slices.Clone(committed.Documents),
				RephraseCount: committed.RephraseCount,
				Path:          slices.Clone(path),
			}
			s.mu.Unlock()

			e.logger.Info(logModule, "run finished", map[string]interface{}{
				"session_id":     s.sessionID,
				"outcome":        string(committed.Outcome),
				"path":           pathString(path),
				"rephrase_count": committed.RephraseCount,
			})
			report(committed.Outcome, nil)
			return nil
		}

		step = next
	}
}

// execute runs one step on work and returns the step to run next
func (s *Stream) execute(ctx context.Context, step store.Step, work *store.SessionState, emit func(string) error) (store.Step, error) {
	e := s.engine

	fn, ok := e.registry[step]
	if !ok {
		return "", fmt.Errorf("unknown step %q", step)
	}

	ctx, span := e.tracer.Start(ctx, "workflow."+string(step), trace.WithAttributes(
		attribute.String("session.id", s.sessionID),
		attribute.Int("rephrase.count", work.RephraseCount),
	))
	defer span.End()

	begin := time.Now()
	err := fn(ctx, s.question, work, emit)
	e.metrics.observeStep(step, time.Since(begin), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	next := e.transition(step, work)
	span.SetAttributes(attribute.String("workflow.next", string(next)))

	e.logger.Debug(logModule, "step completed", map[string]interface{}{
		"session_id": s.sessionID,
		"step":       string(step),
		"next":       string(next),
		"documents":  len(work.Documents),
		"elapsed_ms": time.Since(begin).Milliseconds(),
	})
	return next, nil
}
