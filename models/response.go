package models

// SourceRef identifies one cited document and its retrieval score.
type SourceRef struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type QueryResponse struct {
	Answer    string      `json:"answer"`
	Sources   []SourceRef `json:"sources"`
	LatencyMS int64       `json:"latency_ms"`
}
