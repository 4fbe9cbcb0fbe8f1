package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

type fakeRetriever struct {
	results  []models.QueryResult
	err      error
	lastTopK int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, topK int, minScore float64) ([]models.QueryResult, error) {
	f.lastTopK = topK
	return f.results, f.err
}

type fakeGenerator struct {
	answer      string
	err         error
	lastContext []string
}

func (f *fakeGenerator) Answer(ctx context.Context, question string, contextSnippets []string) (string, error) {
	f.lastContext = contextSnippets
	return f.answer, f.err
}

func TestQuery_AssemblesResponse(t *testing.T) {
	retriever := &fakeRetriever{results: []models.QueryResult{
		{Content: "Turn the dial clockwise.", Source: "manual", Score: 0.92},
		{Content: "Wear goggles.", Source: "safety", Score: 0.41},
	}}
	generator := &fakeGenerator{answer: "Turn the dial clockwise (manual, page 1)."}

	svc := NewQueryService(retriever, generator, nil, false, 5, zap.NewNop())
	response, err := svc.Query(context.Background(), "How do I turn the dial?", 2)
	require.NoError(t, err)

	assert.Equal(t, "Turn the dial clockwise (manual, page 1).", response.Answer)
	require.Len(t, response.Sources, 2)
	assert.Equal(t, models.SourceRef{Source: "manual", Score: 0.92}, response.Sources[0])
	assert.GreaterOrEqual(t, response.LatencyMS, int64(0))

	// The generator sees exactly the retrieved snippets.
	assert.Equal(t, []string{"Turn the dial clockwise.", "Wear goggles."}, generator.lastContext)
	assert.Equal(t, 2, retriever.lastTopK)
}

func TestQuery_DefaultTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	svc := NewQueryService(retriever, &fakeGenerator{answer: "x"}, nil, false, 7, zap.NewNop())
	_, err := svc.Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, retriever.lastTopK)
}

func TestQuery_EmptyStore(t *testing.T) {
	generator := &fakeGenerator{answer: AnswerSentinelNoContext}
	svc := NewQueryService(&fakeRetriever{}, generator, nil, false, 5, zap.NewNop())

	response, err := svc.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, AnswerSentinelNoContext, response.Answer)
	assert.NotNil(t, response.Sources)
	assert.Empty(t, response.Sources)
	assert.Empty(t, generator.lastContext)
}

func TestQuery_StoreFailureDegradesToEmptyContext(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("%w: down", ErrStoreUnavailable)}
	generator := &fakeGenerator{answer: AnswerSentinelNoContext}
	svc := NewQueryService(retriever, generator, nil, false, 5, zap.NewNop())

	response, err := svc.Query(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, AnswerSentinelNoContext, response.Answer)
	assert.Empty(t, response.Sources)
}

func TestQuery_ModelFailureReturnsSentinel(t *testing.T) {
	retriever := &fakeRetriever{results: []models.QueryResult{{Content: "c", Source: "s", Score: 0.5}}}
	generator := &fakeGenerator{err: fmt.Errorf("%w: timeout", ErrModelCallFailed)}
	svc := NewQueryService(retriever, generator, nil, false, 5, zap.NewNop())

	response, err := svc.Query(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, AnswerSentinelCallFailed, response.Answer)
	// Sources still reflect what was retrieved.
	require.Len(t, response.Sources, 1)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("How?", []string{"ctx one", "ctx two"})
	assert.Contains(t, prompt, SystemPrompt)
	assert.Contains(t, prompt, "ctx one\nctx two")
	assert.Contains(t, prompt, "Question: How?")
}
