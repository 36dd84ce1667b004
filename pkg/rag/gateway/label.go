package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"multistep-rag-be/pkg/rag"
)

// structured output shape requested from the model, e.g. {"score": "Yes"}
type labelPayload struct {
	Score string `json:"score"`
	Label string `json:"label"`
}

// ParseLabel maps raw model output onto one of allowed, ignoring case, surrounding
// whitespace, quotes and punctuation. Output that matches none of them is a schema violation.
func ParseLabel(raw string, allowed []string) (string, error) {
	candidate := strings.TrimSpace(raw)

	if strings.HasPrefix(candidate, "{") {
		var payload labelPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			return "", fmt.Errorf("%w: unparseable structured output %q", rag.ErrSchemaViolation, truncate(raw))
		}
		candidate = payload.Score
		if candidate == "" {
			candidate = payload.Label
		}
	}

	candidate = strings.TrimFunc(candidate, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})

	for _, label := range allowed {
		if strings.EqualFold(candidate, label) {
			return label, nil
		}
	}

	return "", fmt.Errorf("%w: got %q, want one of %v", rag.ErrSchemaViolation, truncate(raw), allowed)
}

func truncate(s string) string {
	const max = 80
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
