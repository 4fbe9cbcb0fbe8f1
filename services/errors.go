package services

import "errors"

// Adapter failure kinds. Adapters wrap these so callers can decide per kind
// whether to skip-and-continue (ingestion) or degrade to a sentinel answer
// (query), instead of every layer swallowing errors on its own.
var (
	// ErrOCRFailed marks a document whose text could not be extracted; the
	// document is skipped for the current ingestion run.
	ErrOCRFailed = errors.New("ocr extraction failed")

	// ErrStoreUnavailable marks a failed call to the vector store.
	ErrStoreUnavailable = errors.New("embedding store unavailable")

	// ErrModelCallFailed marks a failed chat-completion call.
	ErrModelCallFailed = errors.New("model call failed")
)
