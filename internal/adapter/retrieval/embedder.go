package retrieval

import (
	"fmt"

	"exam-agent/internal/config"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
)

// NewEmbedder creates the langchaingo embedder used to vectorise retrieval
// queries. Source is "openai" (any OpenAI-compatible endpoint) or "ollama".
func NewEmbedder(cfg config.EmbeddingConfig) (embeddings.Embedder, error) {
	switch cfg.Source {
	case "ollama":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("ollama server URL cannot be empty")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama model name cannot be empty")
		}
		llm, err := ollamaLLM.New(
			ollamaLLM.WithModel(cfg.Model),
			ollamaLLM.WithServerURL(cfg.ServerURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create LangchainGo Ollama LLM client for embedder: %w", err)
		}
		embedder, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("failed to create generic embedder from Ollama LLM: %w", err)
		}
		return embedder, nil

	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key cannot be empty")
		}
		modelName := cfg.Model
		if modelName == "" {
			modelName = "text-embedding-v3"
		}
		opts := []openaiLLM.Option{
			openaiLLM.WithToken(cfg.APIKey),
			openaiLLM.WithEmbeddingModel(modelName),
		}
		if cfg.ServerURL != "" {
			opts = append(opts, openaiLLM.WithBaseURL(cfg.ServerURL))
		}
		llm, err := openaiLLM.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client for embedder: %w", err)
		}
		embedder, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("failed to create generic embedder from OpenAI LLM: %w", err)
		}
		return embedder, nil

	default:
		return nil, fmt.Errorf("unsupported embedding source: %s", cfg.Source)
	}
}
