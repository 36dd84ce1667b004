package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		want      []string
	}{
		{name: "empty", text: "   ", chunkSize: 10, want: nil},
		{name: "fits in one chunk", text: "short text", chunkSize: 100, want: []string{"short text"}},
		{name: "breaks at spaces", text: "alpha beta gamma delta", chunkSize: 12, want: []string{"alpha beta", "gamma delta"}},
		{name: "prefers paragraphs", text: "one two\n\nthree four five", chunkSize: 12, want: []string{"one two", "three four", "five"}},
		{name: "hard cut without boundaries", text: "abcdefghij", chunkSize: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "hard cut with overlap", text: "abcdefghij", chunkSize: 4, overlap: 1, want: []string{"abcd", "defg", "ghij"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.text, tt.chunkSize, tt.overlap))
		})
	}
}

func TestSplitTextBoundsAndCoverage(t *testing.T) {
	text := strings.Repeat("Attention is all you need. Multi-head attention, ünïcödé. ", 80)

	chunks := SplitText(text, 1000, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000)
		assert.True(t, utf8.ValidString(c))
	}
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), chunks[len(chunks)-1]))
}
