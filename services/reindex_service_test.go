package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

type fakeIngester struct {
	records []models.Record
	err     error
	calls   atomic.Int32
}

func (f *fakeIngester) IngestDir(ctx context.Context, rawDir string) ([]models.Record, error) {
	f.calls.Add(1)
	return f.records, f.err
}

type fakeStore struct {
	err   error
	calls atomic.Int32
	last  []models.Record
}

func (f *fakeStore) Rebuild(ctx context.Context, records []models.Record) error {
	f.calls.Add(1)
	f.last = records
	return f.err
}

func collectEvents(t *testing.T, events <-chan ProgressEvent) []ProgressEvent {
	t.Helper()
	var out []ProgressEvent
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, event)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for progress events")
		}
	}
}

func TestReindex_Success(t *testing.T) {
	ingester := &fakeIngester{records: []models.Record{models.NewRecord("t", "d", 1)}}
	store := &fakeStore{}
	svc := NewReindexService(ingester, store, "/raw", zap.NewNop())

	require.NoError(t, svc.Reindex(context.Background()))
	assert.Equal(t, int32(1), ingester.calls.Load())
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Len(t, store.last, 1)
}

func TestReindex_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("chroma down")}
	svc := NewReindexService(&fakeIngester{}, store, "/raw", zap.NewNop())
	assert.Error(t, svc.Reindex(context.Background()))
}

func TestReindexWithProgress_EventSequence(t *testing.T) {
	ingester := &fakeIngester{records: []models.Record{
		models.NewRecord("a", "d1", 1),
		models.NewRecord("b", "d2", 1),
	}}
	svc := NewReindexService(ingester, &fakeStore{}, "/raw", zap.NewNop())

	events := collectEvents(t, svc.ReindexWithProgress(context.Background()))
	require.Len(t, events, 4)
	assert.Equal(t, ProgressEvent{Event: EventProgress, Data: "Starting reindex..."}, events[0])
	assert.Equal(t, ProgressEvent{Event: EventProgress, Data: "Ingested 2 documents."}, events[1])
	assert.Equal(t, ProgressEvent{Event: EventProgress, Data: "Embedded and stored documents."}, events[2])
	assert.Equal(t, ProgressEvent{Event: EventDone, Data: "Reindexing complete!"}, events[3])
}

func TestReindexWithProgress_ErrorEvent(t *testing.T) {
	svc := NewReindexService(&fakeIngester{err: errors.New("raw dir gone")},
		&fakeStore{}, "/raw", zap.NewNop())

	events := collectEvents(t, svc.ReindexWithProgress(context.Background()))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Event)
	assert.Contains(t, last.Data, "raw dir gone")
}

func TestReindexWithProgress_ClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewReindexService(&fakeIngester{}, &fakeStore{}, "/raw", zap.NewNop())

	events := svc.ReindexWithProgress(ctx)
	cancel()

	// The generator must wind down without anyone draining the channel.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("progress channel never closed after cancel")
		}
	}
}

func TestStartBackground_RunsOnce(t *testing.T) {
	ingester := &fakeIngester{}
	store := &fakeStore{}
	svc := NewReindexService(ingester, store, "/raw", zap.NewNop())

	svc.StartBackground(context.Background())
	assert.Eventually(t, func() bool {
		return store.calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), ingester.calls.Load())
}
