package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"exam-agent/internal/config"
	"exam-agent/internal/domain"
	"exam-agent/internal/logger"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIStreamGenerator opens streaming chat completions against an
// OpenAI-compatible endpoint. Reasoning deltas are dropped before fragments
// reach the caller.
type OpenAIStreamGenerator struct {
	client           *openai.Client
	model            string
	temperature      float32
	maxTokensPerItem int
	maxTokens        int
}

// NewOpenAIStreamGenerator builds a generator from the LLM configuration.
// httpClient may be nil.
func NewOpenAIStreamGenerator(cfg config.LLMConfig, httpClient *http.Client) (*OpenAIStreamGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm API key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model name cannot be empty")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAIStreamGenerator{
		client:           openai.NewClientWithConfig(clientCfg),
		model:            cfg.Model,
		temperature:      float32(cfg.Temperature),
		maxTokensPerItem: cfg.MaxTokensPerItem,
		maxTokens:        cfg.MaxTokens,
	}, nil
}

// completionBudget sizes max_tokens from the requested item count. Zero means
// the provider default.
func (g *OpenAIStreamGenerator) completionBudget(count int) int {
	if g.maxTokensPerItem <= 0 || count <= 0 {
		return 0
	}
	budget := count * g.maxTokensPerItem
	if g.maxTokens > 0 && budget > g.maxTokens {
		budget = g.maxTokens
	}
	return budget
}

func (g *OpenAIStreamGenerator) Stream(ctx context.Context, prompt string, count int) (domain.FragmentStream, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:   g.temperature,
		MaxTokens:     g.completionBudget(count),
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, domain.NewGenerationError(err)
	}
	logger.Get().Debug("Generation stream opened",
		zap.String("model", g.model),
		zap.Int("count", count),
		zap.Int("max_tokens", req.MaxTokens))
	return &openAIFragmentStream{stream: stream}, nil
}

type openAIFragmentStream struct {
	stream         *openai.ChatCompletionStream
	usage          *domain.Usage
	reasoningChars int
	done           bool
}

func (s *openAIFragmentStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			if s.reasoningChars > 0 {
				logger.Get().Debug("Discarded reasoning content", zap.Int("chars", s.reasoningChars))
			}
			return "", io.EOF
		}
		if err != nil {
			s.done = true
			return "", domain.NewGenerationError(err)
		}
		if resp.Usage != nil {
			s.usage = domain.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta
		if delta.ReasoningContent != "" {
			s.reasoningChars += len([]rune(delta.ReasoningContent))
			continue
		}
		if delta.Content == "" {
			continue
		}
		return delta.Content, nil
	}
}

func (s *openAIFragmentStream) Usage() *domain.Usage {
	return s.usage
}

func (s *openAIFragmentStream) Close() error {
	s.done = true
	return s.stream.Close()
}

var _ domain.Generator = (*OpenAIStreamGenerator)(nil)
