package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"multistep-rag-be/internal/pkg/extract"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIngestService(repo *fakePassageRepo, emb *fakeEmbedder) *ingestService {
	return NewIngestService(repo, emb, logger.NewNopLogger()).(*ingestService)
}

func TestIngest_IndexesSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", strings.Repeat("The encoder maps an input sequence. ", 60))
	writeFile(t, dir, "nested/b.md", "# Decoder\nThe decoder is autoregressive.")
	writeFile(t, dir, "image.png", "binary")

	repo := &fakePassageRepo{}
	svc := newTestIngestService(repo, &fakeEmbedder{})

	report, err := svc.Ingest(context.Background(), IngestRequest{Path: dir})

	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.False(t, report.Failed())
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 2, report.Sections)
	assert.Equal(t, len(repo.stored), report.Passages)
	assert.Greater(t, report.Passages, 2)
	for _, p := range repo.stored {
		assert.NotEmpty(t, p.Content)
		assert.LessOrEqual(t, len([]rune(p.Content)), DefaultChunkSize)
		assert.Equal(t, []float32{1, 0}, p.Embedding)
	}
	assert.Empty(t, repo.deleted)
}

func TestIngest_SkipsPopulatedIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	repo := &fakePassageRepo{count: 12}
	emb := &fakeEmbedder{}
	report, err := newTestIngestService(repo, emb).Ingest(context.Background(), IngestRequest{Path: dir})

	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, emb.calls)
	assert.Empty(t, repo.stored)
}

func TestIngest_ForceReplacesPerFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "content")

	repo := &fakePassageRepo{count: 12}
	report, err := newTestIngestService(repo, &fakeEmbedder{}).Ingest(context.Background(), IngestRequest{Path: dir, Force: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Passages)
	assert.Equal(t, []specification.Specification{specification.BySource{Path: path}}, repo.deleted)
}

func TestIngest_CollectsPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "fine content")
	bad := writeFile(t, dir, "bad.txt", "poison content")
	empty := writeFile(t, dir, "empty.md", "   ")

	repo := &fakePassageRepo{}
	report, err := newTestIngestService(repo, &fakeEmbedder{failOn: "poison"}).Ingest(context.Background(), IngestRequest{Path: dir})

	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, 3, report.Files)
	require.Len(t, report.Failures, 2)
	failed := []string{report.Failures[0].Path, report.Failures[1].Path}
	assert.ElementsMatch(t, []string{bad, empty}, failed)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, good, repo.stored[0].Source)
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		repo *fakePassageRepo
	}{
		{
			name: "missing root",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			repo: &fakePassageRepo{},
		},
		{
			name: "no supported files",
			path: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "x.png", "binary")
				return dir
			},
			repo: &fakePassageRepo{},
		},
		{
			name: "index unreachable",
			path: func(t *testing.T) string { return t.TempDir() },
			repo: &fakePassageRepo{countErr: errors.New("connection refused")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestIngestService(tt.repo, &fakeEmbedder{}).Ingest(context.Background(), IngestRequest{Path: tt.path(t)})
			assert.Error(t, err)
		})
	}
}

func TestIngest_UsesPageSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "paper.pdf", "ignored by the stub extractor")

	repo := &fakePassageRepo{}
	svc := newTestIngestService(repo, &fakeEmbedder{})
	svc.extract = func(path string) ([]extract.Section, error) {
		return []extract.Section{
			{Source: path + "#page=1", Text: "Abstract."},
			{Source: path + "#page=2", Text: "Introduction."},
		}, nil
	}

	report, err := svc.Ingest(context.Background(), IngestRequest{Path: dir})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Sections)
	require.Len(t, repo.stored, 2)
	assert.True(t, strings.HasSuffix(repo.stored[1].Source, "paper.pdf#page=2"))
}
