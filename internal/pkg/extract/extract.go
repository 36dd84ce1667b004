// Package extract turns source files into plain-text sections ready for chunking.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Section is the text of one addressable part of a file: a PDF page or a whole text file
type Section struct {
	Source string
	Text   string
}

var supported = map[string]bool{".pdf": true, ".txt": true, ".md": true}

func Supported(path string) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

func File(path string) ([]Section, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF(path)
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []Section{{Source: path, Text: string(raw)}}, nil
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// PDF extracts every page separately so passages can cite "file#page=N".
// Pages without extractable text are skipped.
func PDF(path string) ([]Section, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sections []Section
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, Section{
			Source: fmt.Sprintf("%s#page=%d", path, i),
			Text:   text,
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}
	return sections, nil
}
