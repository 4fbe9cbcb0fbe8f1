package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF"), 0o644))
	return path
}

func TestOCRService_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pages":[
			{"index":1,"markdown":"Turn the dial clockwise."},
			{"index":2,"markdown":""},
			{"markdown":"orphan page"},
			{"index":4}
		]}`))
	}))
	defer server.Close()

	svc := NewOCRService(server.Client(), server.URL, "test-key", "mistral-ocr-latest", zap.NewNop())
	pages, err := svc.Extract(context.Background(), writeTempPDF(t))
	require.NoError(t, err)
	require.Len(t, pages, 4)

	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, "Turn the dial clockwise.", pages[0].Text)
	assert.Equal(t, 2, pages[1].Page)
	assert.Equal(t, "", pages[1].Text)
	// A missing index falls back to page 1, missing text to empty.
	assert.Equal(t, 1, pages[2].Page)
	assert.Equal(t, "orphan page", pages[2].Text)
	assert.Equal(t, 4, pages[3].Page)
	assert.Equal(t, "", pages[3].Text)
}

func TestOCRService_FileNotFound(t *testing.T) {
	svc := NewOCRService(http.DefaultClient, "http://unused", "k", "m", zap.NewNop())
	pages, err := svc.Extract(context.Background(), "/does/not/exist.pdf")
	assert.Empty(t, pages)
	assert.ErrorIs(t, err, ErrOCRFailed)
}

func TestOCRService_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOCRService(server.Client(), server.URL, "k", "m", zap.NewNop())
	pages, err := svc.Extract(context.Background(), writeTempPDF(t))
	assert.Empty(t, pages)
	assert.ErrorIs(t, err, ErrOCRFailed)
}

func TestOCRService_Unreachable(t *testing.T) {
	svc := NewOCRService(http.DefaultClient, "http://127.0.0.1:1", "k", "m", zap.NewNop())
	_, err := svc.Extract(context.Background(), writeTempPDF(t))
	assert.ErrorIs(t, err, ErrOCRFailed)
}
