package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// AnswerGenerator produces a natural-language answer from a question and the
// retrieved context snippets. Failures are wrapped in ErrModelCallFailed;
// the query service maps them to a fixed sentinel.
type AnswerGenerator interface {
	Answer(ctx context.Context, question string, contextSnippets []string) (string, error)
}

// GroqGenerator calls the Groq OpenAI-compatible chat-completion endpoint.
type GroqGenerator struct {
	llm       llms.Model
	maxTokens int
	logger    *zap.Logger
}

func NewGroqGenerator(baseURL, apiKey, model string, logger *zap.Logger) (*GroqGenerator, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create groq client: %w", err)
	}
	return &GroqGenerator{
		llm:       llm,
		maxTokens: 512,
		logger:    logger,
	}, nil
}

// Answer implements AnswerGenerator.
func (g *GroqGenerator) Answer(ctx context.Context, question string, contextSnippets []string) (string, error) {
	prompt := BuildPrompt(question, contextSnippets)
	result, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithMaxTokens(g.maxTokens))
	if err != nil {
		g.logger.Error("groq api call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrModelCallFailed, err)
	}
	return result, nil
}

// BuildPrompt assembles the single prompt sent to the chat model: system
// instruction, newline-joined context, then the question.
func BuildPrompt(question string, contextSnippets []string) string {
	return fmt.Sprintf("System: %s\n\nContext:\n%s\n\nQuestion: %s",
		SystemPrompt, strings.Join(contextSnippets, "\n"), question)
}
