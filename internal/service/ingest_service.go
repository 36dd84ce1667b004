package service

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"multistep-rag-be/internal/entity"
	"multistep-rag-be/internal/pkg/extract"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/repository/contract"
	"multistep-rag-be/internal/repository/specification"
	"multistep-rag-be/pkg/embedding"
	"multistep-rag-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 50
)

type IngestRequest struct {
	Path  string
	Force bool // re-index files even when the passage table is already populated
}

type FileFailure struct {
	Path string
	Err  error
}

type IngestReport struct {
	Skipped  bool // index was already populated and Force was not set
	Files    int
	Sections int
	Passages int
	Failures []FileFailure
	Duration time.Duration
}

func (r *IngestReport) Failed() bool {
	return len(r.Failures) > 0
}

type IIngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestReport, error)
}

type ingestService struct {
	passages  contract.PassageRepository
	embedder  embedding.EmbeddingProvider
	logger    logger.ILogger
	chunkSize int
	overlap   int
	extract   func(path string) ([]extract.Section, error)
}

func NewIngestService(passages contract.PassageRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) IIngestService {
	return &ingestService{
		passages:  passages,
		embedder:  embedder,
		logger:    log,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		extract:   extract.File,
	}
}

// Ingest indexes every supported file under req.Path. A failing file is recorded in the
// report and does not stop the others; the returned error is reserved for problems that
// make the whole run meaningless (unreadable root, index unreachable).
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{}

	if !req.Force {
		count, err := s.passages.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count passages: %w", err)
		}
		if count > 0 {
			s.logger.Info("INGEST", "Passage index already populated, skipping", map[string]interface{}{"passages": count})
			report.Skipped = true
			report.Duration = time.Since(start)
			return report, nil
		}
	}

	files, err := collectFiles(req.Path)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Files++

		sections, passages, err := s.ingestFile(ctx, path, req.Force)
		if err != nil {
			s.logger.Error("INGEST", "Failed to ingest file", map[string]interface{}{"path": path, "error": err.Error()})
			report.Failures = append(report.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		report.Sections += sections
		report.Passages += passages
		s.logger.Info("INGEST", "File indexed", map[string]interface{}{"path": path, "sections": sections, "passages": passages})
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (s *ingestService) ingestFile(ctx context.Context, path string, replace bool) (int, int, error) {
	sections, err := s.extract(path)
	if err != nil {
		return 0, 0, err
	}

	var passages []*entity.Passage
	for _, section := range sections {
		for i, chunk := range utils.SplitText(section.Text, s.chunkSize, s.overlap) {
			res, err := s.embedder.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
			if err != nil {
				return 0, 0, fmt.Errorf("embed %s chunk %d: %w", section.Source, i, err)
			}
			passages = append(passages, &entity.Passage{
				Id:         uuid.New(),
				Source:     section.Source,
				ChunkIndex: i,
				Content:    chunk,
				Embedding:  res.Embedding.Values,
				CreatedAt:  time.Now(),
			})
		}
	}
	if len(passages) == 0 {
		return len(sections), 0, fmt.Errorf("no text to index in %s", path)
	}

	if replace {
		if err := s.passages.DeleteAll(ctx, specification.BySource{Path: path}); err != nil {
			return 0, 0, fmt.Errorf("delete old passages: %w", err)
		}
	}
	if err := s.passages.CreateBulk(ctx, passages); err != nil {
		return 0, 0, fmt.Errorf("store passages: %w", err)
	}
	return len(sections), len(passages), nil
}

// collectFiles accepts a single file or a directory, walked in lexical order
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && extract.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .pdf, .txt or .md files under %s", root)
	}
	return files, nil
}
