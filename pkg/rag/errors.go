package rag

import "errors"

// Error taxonomy shared by gateways, stores and the workflow engine.
// Refusal outcomes (off-topic, cannot answer) are successful runs and never surface here.
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrSchemaViolation    = errors.New("classification label outside the allowed set")
	ErrGatewayTimeout     = errors.New("gateway call timed out")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrEmptyCompletion    = errors.New("inference returned empty content")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionBusy        = errors.New("session already has an active run")
	ErrEmptyQuestion      = errors.New("question must not be empty")
)

// Kind returns a stable machine-readable name for err, used in API payloads
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrGatewayTimeout):
		return "gateway_timeout"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty_completion"
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionBusy):
		return "session_busy"
	case errors.Is(err, ErrEmptyQuestion):
		return "empty_question"
	default:
		return "internal"
	}
}
