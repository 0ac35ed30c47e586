package service

import (
	"context"
	"strings"

	"exam-agent/internal/domain"
	"exam-agent/internal/logger"
	"exam-agent/internal/prompt"

	"go.uber.org/zap"
)

const (
	defaultRetrievalQuery = "出题"
	snippetLogRunes       = 200
)

// ContextRetriever turns knowledge-base snippets into the reference block of
// the generation prompt. Retrieval problems are never surfaced to callers.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string) (string, *domain.Usage)
}

type contextRetriever struct {
	retriever domain.Retriever
	tidier    domain.Completer
}

// NewContextRetriever wraps retriever. When tidier is non-nil, retrieved text
// is regrouped by the model before use.
func NewContextRetriever(retriever domain.Retriever, tidier domain.Completer) ContextRetriever {
	return &contextRetriever{retriever: retriever, tidier: tidier}
}

func (s *contextRetriever) RetrieveContext(ctx context.Context, query string) (string, *domain.Usage) {
	if s.retriever == nil {
		return "", nil
	}
	q := prompt.Truncate(query, prompt.MaxIntentChars)
	if q == "" {
		q = defaultRetrievalQuery
	}

	snippets, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		logger.Get().Warn("Knowledge base retrieval failed, continuing without context", zap.Error(err))
		return "", nil
	}

	texts := make([]string, 0, len(snippets))
	for i, snippet := range snippets {
		logSnippet(i, snippet)
		if text := strings.TrimSpace(snippet.Text); text != "" {
			texts = append(texts, text)
		}
	}
	raw := strings.Join(texts, "\n\n")
	if raw == "" || s.tidier == nil {
		return raw, nil
	}
	return s.tidy(ctx, raw)
}

func (s *contextRetriever) tidy(ctx context.Context, raw string) (string, *domain.Usage) {
	if len([]rune(raw)) < prompt.MinTidyInputChars {
		return raw, nil
	}
	tidied, usage, err := s.tidier.Complete(ctx, prompt.TidyContext(raw))
	if err != nil {
		logger.Get().Warn("Context tidy failed, using raw retrieval text", zap.Error(err))
		return raw, nil
	}
	tidied = strings.TrimSpace(tidied)
	if tidied == "" {
		return raw, usage
	}
	if len([]rune(tidied)) > prompt.MaxTidyOutputChars {
		tidied = prompt.Truncate(tidied, prompt.MaxTidyOutputChars) + prompt.TidyOutputTruncatedMarker
	}
	logger.Get().Debug("Retrieved context tidied",
		zap.Int("raw_chars", len([]rune(raw))),
		zap.Int("tidied_chars", len([]rune(tidied))))
	return tidied, usage
}

func logSnippet(i int, snippet domain.Snippet) {
	fields := []zap.Field{
		zap.Int("rank", i+1),
		zap.String("text", prompt.Truncate(snippet.Text, snippetLogRunes)),
	}
	if snippet.Score != nil {
		fields = append(fields, zap.Float64("score", *snippet.Score))
	}
	logger.Get().Debug("Retrieved snippet", fields...)
}
