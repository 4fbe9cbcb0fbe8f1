package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a \t b \n\n c  "))
	assert.Equal(t, "", CleanText("   \n\t  "))
	assert.Equal(t, "single", CleanText("single"))
}

func TestChunkText_WindowCounts(t *testing.T) {
	words := make([]string, 1000)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := ChunkText(text, 512)
	require.Len(t, chunks, 2)
	assert.Len(t, strings.Fields(chunks[0]), 512)
	assert.Len(t, strings.Fields(chunks[1]), 488)
}

func TestChunkText_ExactMultiple(t *testing.T) {
	chunks := ChunkText("a b c d e f", 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a b c", chunks[0])
	assert.Equal(t, "d e f", chunks[1])
}

func TestChunkText_PreservesWordSequence(t *testing.T) {
	text := "the quick   brown\nfox jumps over the lazy dog"
	chunks := ChunkText(text, 2)

	var rejoined []string
	for _, chunk := range chunks {
		rejoined = append(rejoined, strings.Fields(chunk)...)
	}
	assert.Equal(t, strings.Fields(text), rejoined)
}

func TestChunkText_Empty(t *testing.T) {
	assert.Empty(t, ChunkText("", 512))
	assert.Empty(t, ChunkText("   \n  ", 512))
}

func TestChunkText_DefaultSizeOnInvalid(t *testing.T) {
	chunks := ChunkText("a b c", 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b c", chunks[0])
}

func TestChunkPage_AttachesProvenance(t *testing.T) {
	chunks := ChunkPage("one two three four five", "manual", 3, 2)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.Equal(t, "manual", chunk.DocID)
		assert.Equal(t, 3, chunk.Page)
	}
	assert.Equal(t, "five", chunks[2].Text)
}

func TestChunkPage_Empty(t *testing.T) {
	assert.Nil(t, ChunkPage("", "manual", 1, 512))
}
