package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// IngestService produces the full indexed corpus from the raw document
// directory. Every invocation reprocesses every file; there is no
// incremental mode.
type IngestService struct {
	extractor    PageExtractor
	processedDir string
	logger       *zap.Logger
}

// NewIngestService creates the pipeline. When processedDir is non-empty,
// every run also writes the flat records to <processedDir>/chunks.jsonl for
// inspection.
func NewIngestService(extractor PageExtractor, processedDir string, logger *zap.Logger) *IngestService {
	return &IngestService{
		extractor:    extractor,
		processedDir: processedDir,
		logger:       logger,
	}
}

// IngestDir scans rawDir for PDF files (case-insensitive extension), runs
// each through the page extractor, and emits one record per non-blank page.
// A document whose extraction fails contributes zero records and is logged;
// it never fails the run.
func (s *IngestService) IngestDir(ctx context.Context, rawDir string) ([]models.Record, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw directory %s: %w", rawDir, err)
	}

	var pdfFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, filepath.Join(rawDir, entry.Name()))
		}
	}
	s.logger.Info("pdf files found for ingestion", zap.Strings("pdf_files", pdfFiles))

	var records []models.Record
	for _, pdfFile := range pdfFiles {
		docID := DocIDFromPath(pdfFile)
		pages, err := s.extractor.Extract(ctx, pdfFile)
		if err != nil {
			s.logger.Warn("skipping document, extraction failed",
				zap.String("doc_id", docID),
				zap.Error(err))
			continue
		}
		for _, page := range pages {
			if strings.TrimSpace(page.Text) == "" {
				continue
			}
			records = append(records, models.NewRecord(page.Text, docID, page.Page))
		}
	}

	s.logger.Info("loaded documents", zap.Int("num_records", len(records)))
	s.writeProcessed(records)
	return records, nil
}

// writeProcessed dumps the flat records as JSON lines. Best-effort: failures
// are logged and never affect the ingestion result.
func (s *IngestService) writeProcessed(records []models.Record) {
	if s.processedDir == "" {
		return
	}
	if err := os.MkdirAll(s.processedDir, 0o755); err != nil {
		s.logger.Warn("failed to create processed directory", zap.Error(err))
		return
	}
	path := filepath.Join(s.processedDir, "chunks.jsonl")
	f, err := os.Create(path)
	if err != nil {
		s.logger.Warn("failed to write processed records", zap.Error(err))
		return
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		flat := map[string]any{"text": record.Text}
		for k, v := range record.Metadata {
			flat[k] = v
		}
		if err := encoder.Encode(flat); err != nil {
			s.logger.Warn("failed to encode processed record", zap.Error(err))
			return
		}
	}
}

// DocIDFromPath derives the stable document id: the base filename without
// its extension.
func DocIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
