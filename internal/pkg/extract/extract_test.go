package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"paper.pdf", true},
		{"PAPER.PDF", true},
		{"notes.md", true},
		{"notes.txt", true},
		{"image.png", false},
		{"README", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Attention\nScaled dot-product."), 0o644))

	sections, err := File(path)

	require.NoError(t, err)
	assert.Equal(t, []Section{{Source: path, Text: "# Attention\nScaled dot-product."}}, sections)
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := File(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = File(filepath.Join(dir, "image.png"))
	assert.ErrorContains(t, err, "unsupported")

	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("not a pdf"), 0o644))
	_, err = File(broken)
	assert.Error(t, err)
}
