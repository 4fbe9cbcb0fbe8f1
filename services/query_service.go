package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plantops/manualrag/models"
)

// Retriever is the read side of the embedding store.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, minScore float64) ([]models.QueryResult, error)
}

// QueryService orchestrates one query: retrieve scored context from the
// store, generate an answer constrained to that context, and assemble the
// response with citations and latency. The retrieved list is authoritative:
// the generator sees exactly the snippets whose scores are returned, so
// citations always line up with the scores.
type QueryService struct {
	retriever Retriever
	generator AnswerGenerator
	cache     *redis.Client
	// The cache hook is carried but disabled by default; enable with
	// CACHE_ENABLED=true.
	cacheEnabled bool
	cacheTTL     time.Duration
	defaultTopK  int
	logger       *zap.Logger
}

func NewQueryService(retriever Retriever, generator AnswerGenerator, cache *redis.Client, cacheEnabled bool, defaultTopK int, logger *zap.Logger) *QueryService {
	return &QueryService{
		retriever:    retriever,
		generator:    generator,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		cacheTTL:     time.Hour,
		defaultTopK:  defaultTopK,
		logger:       logger,
	}
}

// Query answers a question from the indexed corpus. A store failure degrades
// to an empty context; a model failure degrades to the fixed failure
// sentinel. Neither aborts the request.
func (s *QueryService) Query(ctx context.Context, question string, topK int) (*models.QueryResponse, error) {
	start := time.Now()
	if topK <= 0 {
		topK = s.defaultTopK
	}

	cacheKey := fmt.Sprintf("qa:%s:%d", question, topK)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	results, err := s.retriever.Search(ctx, question, topK, 0)
	if err != nil {
		s.logger.Error("retrieval failed, answering with empty context", zap.Error(err))
		results = nil
	}

	contextSnippets := make([]string, 0, len(results))
	sources := make([]models.SourceRef, 0, len(results))
	for _, result := range results {
		contextSnippets = append(contextSnippets, result.Content)
		sources = append(sources, models.SourceRef{Source: result.Source, Score: result.Score})
	}

	answer, err := s.generator.Answer(ctx, question, contextSnippets)
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		answer = AnswerSentinelCallFailed
	}

	latency := time.Since(start)
	queryCount.Inc()
	queryLatency.Observe(latency.Seconds())

	response := &models.QueryResponse{
		Answer:    answer,
		Sources:   sources,
		LatencyMS: latency.Milliseconds(),
	}
	s.cacheSet(ctx, cacheKey, response)
	return response, nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string) *models.QueryResponse {
	if !s.cacheEnabled || s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil
	}
	var response models.QueryResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil
	}
	return &response
}

func (s *QueryService) cacheSet(ctx context.Context, key string, response *models.QueryResponse) {
	if !s.cacheEnabled || s.cache == nil {
		return
	}
	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err))
	}
}
