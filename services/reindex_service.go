package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// Progress event names for the streaming reindex endpoint.
const (
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// ProgressEvent is one lifecycle notification of a streaming reindex.
type ProgressEvent struct {
	Event string
	Data  string
}

// Ingester is the full-scan ingestion pipeline.
type Ingester interface {
	IngestDir(ctx context.Context, rawDir string) ([]models.Record, error)
}

// CorpusStore is the write side of the embedding store.
type CorpusStore interface {
	Rebuild(ctx context.Context, records []models.Record) error
}

// Reindexer rebuilds the indexed corpus from the raw directory. Both the
// admin endpoints and the startup task go through this one implementation.
type Reindexer interface {
	Reindex(ctx context.Context) error
	ReindexWithProgress(ctx context.Context) <-chan ProgressEvent
}

// ReindexService runs the full rebuild: scan and extract every raw PDF,
// embed and store all records, publish the new snapshot. Nothing is retried;
// a failed reindex leaves the previous snapshot serving and the caller
// re-triggers. Concurrent reindexes are not serialized; the last published
// snapshot wins.
type ReindexService struct {
	ingest Ingester
	store  CorpusStore
	rawDir string
	logger *zap.Logger
}

func NewReindexService(ingest Ingester, store CorpusStore, rawDir string, logger *zap.Logger) *ReindexService {
	return &ReindexService{
		ingest: ingest,
		store:  store,
		rawDir: rawDir,
		logger: logger,
	}
}

// Reindex implements Reindexer.
func (r *ReindexService) Reindex(ctx context.Context) error {
	records, err := r.ingest.IngestDir(ctx, r.rawDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if err := r.store.Rebuild(ctx, records); err != nil {
		return fmt.Errorf("store rebuild failed: %w", err)
	}
	r.logger.Info("reindex complete", zap.Int("num_records", len(records)))
	return nil
}

// ReindexWithProgress implements Reindexer. It runs the same rebuild while
// emitting lifecycle events on the returned channel, which is closed when
// the run finishes. Sends respect ctx so a disconnected client cancels the
// stream without leaking the goroutine.
func (r *ReindexService) ReindexWithProgress(ctx context.Context) <-chan ProgressEvent {
	events := make(chan ProgressEvent)

	send := func(event ProgressEvent) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(events)

		if !send(ProgressEvent{Event: EventProgress, Data: "Starting reindex..."}) {
			return
		}
		records, err := r.ingest.IngestDir(ctx, r.rawDir)
		if err != nil {
			send(ProgressEvent{Event: EventError, Data: err.Error()})
			return
		}
		if !send(ProgressEvent{Event: EventProgress, Data: fmt.Sprintf("Ingested %d documents.", len(records))}) {
			return
		}
		if err := r.store.Rebuild(ctx, records); err != nil {
			send(ProgressEvent{Event: EventError, Data: err.Error()})
			return
		}
		if !send(ProgressEvent{Event: EventProgress, Data: "Embedded and stored documents."}) {
			return
		}
		send(ProgressEvent{Event: EventDone, Data: "Reindexing complete!"})
	}()

	return events
}

// StartBackground launches the one-shot startup reindex so the server can
// accept requests immediately. Completion and failure are reported through
// the same snapshot-publish path as admin-triggered reindexes.
func (r *ReindexService) StartBackground(ctx context.Context) {
	go func() {
		if err := r.Reindex(ctx); err != nil {
			r.logger.Error("startup reindex failed", zap.Error(err))
			return
		}
		r.logger.Info("auto reindex completed on startup")
	}()
}
