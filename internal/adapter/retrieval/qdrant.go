package retrieval

import (
	"context"
	"fmt"
	"net/url"

	"exam-agent/internal/config"
	"exam-agent/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/qdrant"
)

// similaritySearcher is the part of vectorstores.VectorStore the retriever uses.
type similaritySearcher interface {
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error)
}

// QdrantRetriever queries a qdrant collection through langchaingo.
type QdrantRetriever struct {
	store similaritySearcher
	topK  int
}

// NewQdrantRetriever connects the vector store described by cfg.
func NewQdrantRetriever(cfg config.RetrievalConfig, embedder embeddings.Embedder) (*QdrantRetriever, error) {
	if cfg.QdrantURL == "" {
		return nil, fmt.Errorf("qdrant URL cannot be empty")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection cannot be empty")
	}
	u, err := url.Parse(cfg.QdrantURL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant URL %q: %w", cfg.QdrantURL, err)
	}

	opts := []qdrant.Option{
		qdrant.WithURL(*u),
		qdrant.WithCollectionName(cfg.Collection),
		qdrant.WithEmbedder(embedder),
	}
	if cfg.APIKey != "" {
		opts = append(opts, qdrant.WithAPIKey(cfg.APIKey))
	}
	store, err := qdrant.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant store: %w", err)
	}
	return newQdrantRetriever(store, cfg.TopK), nil
}

func newQdrantRetriever(store similaritySearcher, topK int) *QdrantRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &QdrantRetriever{store: store, topK: topK}
}

func (r *QdrantRetriever) Retrieve(ctx context.Context, query string) ([]domain.Snippet, error) {
	docs, err := r.store.SimilaritySearch(ctx, query, r.topK)
	if err != nil {
		return nil, domain.NewRetrievalError(err)
	}
	snippets := make([]domain.Snippet, 0, len(docs))
	for _, doc := range docs {
		snippet := domain.Snippet{Text: doc.PageContent, Metadata: doc.Metadata}
		if doc.Score != 0 {
			score := float64(doc.Score)
			snippet.Score = &score
		}
		snippets = append(snippets, snippet)
	}
	return snippets, nil
}

// NoopRetriever is used when no knowledge base is configured.
type NoopRetriever struct{}

func (NoopRetriever) Retrieve(context.Context, string) ([]domain.Snippet, error) {
	return nil, nil
}

var (
	_ domain.Retriever = (*QdrantRetriever)(nil)
	_ domain.Retriever = NoopRetriever{}
)
