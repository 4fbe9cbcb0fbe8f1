package services

import (
	"strings"

	"github.com/plantops/manualrag/models"
)

// CleanText collapses all whitespace runs to a single space and trims the
// result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ChunkText splits text into consecutive, non-overlapping windows of
// chunkSize words. The text is normalized first; the final window may be
// shorter. Empty input yields no chunks.
func ChunkText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for i := 0; i < len(words); i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// ChunkPage windows a page's text and attaches provenance to every chunk.
func ChunkPage(text, docID string, page, chunkSize int) []models.Chunk {
	pieces := ChunkText(text, chunkSize)
	if len(pieces) == 0 {
		return nil
	}
	chunks := make([]models.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, models.Chunk{Text: piece, DocID: docID, Page: page})
	}
	return chunks
}
