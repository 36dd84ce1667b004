package rag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "wrapped timeout", err: fmt.Errorf("classify: %w", ErrGatewayTimeout), want: "gateway_timeout"},
		{name: "empty completion", err: fmt.Errorf("%w: %w", ErrGatewayUnavailable, ErrEmptyCompletion), want: "empty_completion"},
		{name: "schema", err: ErrSchemaViolation, want: "schema_violation"},
		{name: "busy", err: ErrSessionBusy, want: "session_busy"},
		{name: "unknown", err: errors.New("boom"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
