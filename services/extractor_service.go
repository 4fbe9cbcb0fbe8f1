package services

import (
	"context"
	"fmt"
	"os"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// LocalExtractor extracts page text with UniPDF, without any network call.
// It stands in for the OCR service when no OCR API key is configured, so the
// ingestion pipeline behaves the same either way. Scanned PDFs without a
// text layer come back blank through this path.
type LocalExtractor struct {
	logger *zap.Logger
}

func NewLocalExtractor(logger *zap.Logger) *LocalExtractor {
	if err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY")); err != nil {
		logger.Warn("failed to set unidoc license key, pdf extraction may fail", zap.Error(err))
	}
	return &LocalExtractor{logger: logger}
}

// Extract implements PageExtractor. Pages are numbered 1-based.
func (e *LocalExtractor) Extract(ctx context.Context, pdfPath string) ([]models.PageText, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		e.logger.Error("failed to open pdf", zap.String("file", pdfPath), zap.Error(err))
		return nil, fmt.Errorf("%w: open %s: %v", ErrOCRFailed, pdfPath, err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf %s: %v", ErrOCRFailed, pdfPath, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: page count: %v", ErrOCRFailed, err)
	}

	pages := make([]models.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOCRFailed, err)
		}
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrOCRFailed, i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%w: extractor for page %d: %v", ErrOCRFailed, i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %v", ErrOCRFailed, i, err)
		}
		pages = append(pages, models.PageText{Page: i, Text: text})
	}

	e.logger.Info("local pdf extraction complete",
		zap.String("file", pdfPath),
		zap.Int("num_pages", len(pages)))
	return pages, nil
}
