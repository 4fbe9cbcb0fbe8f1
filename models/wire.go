package models

// Wire types for the external embedding and OCR HTTP APIs.

// OllamaEmbedRequest is the request body for the Ollama embedding API.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse carries the embedding vector back from Ollama.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// OCRDocument points the OCR service at an inline base64 data URL.
type OCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// OCRRequest is the request body for the Mistral OCR API.
type OCRRequest struct {
	Model    string      `json:"model"`
	Document OCRDocument `json:"document"`
}

// OCRPage is one page of an OCR response. Index and Markdown are pointers so
// a missing field can be told apart from a zero value; callers substitute
// page 1 and empty text respectively.
type OCRPage struct {
	Index    *int    `json:"index"`
	Markdown *string `json:"markdown"`
}

// OCRResponse is the OCR service's reply.
type OCRResponse struct {
	Pages []OCRPage `json:"pages"`
}
