package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// PageExtractor converts a PDF file into an ordered sequence of pages of
// text. Implementations must wrap failures in ErrOCRFailed so ingestion can
// skip the document and continue.
type PageExtractor interface {
	Extract(ctx context.Context, pdfPath string) ([]models.PageText, error)
}

// OCRService extracts page text through the Mistral OCR HTTP API. The PDF is
// read fully and shipped inline as a base64 data URL.
type OCRService struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	logger     *zap.Logger
}

func NewOCRService(client *http.Client, apiURL, apiKey, model string, logger *zap.Logger) *OCRService {
	return &OCRService{
		httpClient: client,
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// Extract implements PageExtractor. A missing page index becomes 1 and
// missing page text becomes the empty string; blank pages are kept here and
// dropped by the ingestion pipeline.
func (s *OCRService) Extract(ctx context.Context, pdfPath string) ([]models.PageText, error) {
	raw, err := os.ReadFile(pdfPath)
	if err != nil {
		s.logger.Error("failed to read pdf for ocr", zap.String("file", pdfPath), zap.Error(err))
		return nil, fmt.Errorf("%w: read %s: %v", ErrOCRFailed, pdfPath, err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	reqBody, err := json.Marshal(models.OCRRequest{
		Model: s.model,
		Document: models.OCRDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + encoded,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrOCRFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrOCRFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		s.logger.Error("ocr api call failed", zap.String("file", pdfPath), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOCRFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.logger.Error("ocr api returned non-200 status",
			zap.String("file", pdfPath),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", bodyBytes))
		return nil, fmt.Errorf("%w: status %d", ErrOCRFailed, resp.StatusCode)
	}

	var ocrResp models.OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrOCRFailed, err)
	}

	pages := make([]models.PageText, 0, len(ocrResp.Pages))
	for _, page := range ocrResp.Pages {
		pageNum := 1
		if page.Index != nil {
			pageNum = *page.Index
		}
		text := ""
		if page.Markdown != nil {
			text = *page.Markdown
		}
		pages = append(pages, models.PageText{Page: pageNum, Text: text})
	}

	s.logger.Info("ocr extraction complete",
		zap.String("file", pdfPath),
		zap.Int("num_pages", len(pages)))
	return pages, nil
}
