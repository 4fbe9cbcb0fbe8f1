package models

// PageText is one OCR-extracted page of a source PDF. Page numbers come from
// the OCR service and default to 1 when the service does not report one.
type PageText struct {
	Page int
	Text string
}

// Record is the flat ingestion unit handed to the embedding store: one page's
// text plus its provenance metadata. Metadata is cleaned to primitive values
// before storage.
type Record struct {
	Text     string
	Metadata map[string]any
}

// NewRecord builds a Record carrying the standard provenance fields.
func NewRecord(text, docID string, page int) Record {
	return Record{
		Text: text,
		Metadata: map[string]any{
			"doc_id": docID,
			"page":   page,
		},
	}
}

// Chunk is a bounded, word-windowed slice of a page's text. Chunks have no
// identity beyond (doc_id, page, position); they are regenerated on every
// ingestion, never updated in place.
type Chunk struct {
	Text  string
	DocID string
	Page  int
}

// QueryResult is one scored retrieval hit. Score is a normalized relevance
// in [0,1]; Source is empty when the stored record carried no doc_id.
type QueryResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}
