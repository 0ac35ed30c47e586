package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"exam-agent/internal/config"
	"exam-agent/internal/domain"
	"exam-agent/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangchainCompleter runs one-shot prompts (backfill, key points, context
// tidy) through a langchaingo model.
type LangchainCompleter struct {
	model       llms.Model
	temperature float64
}

// NewLangchainCompleter wraps an existing model. Tests pass fakes here.
func NewLangchainCompleter(model llms.Model, temperature float64) *LangchainCompleter {
	return &LangchainCompleter{model: model, temperature: temperature}
}

// NewOpenAICompatibleModel creates the langchaingo client for the configured
// OpenAI-compatible endpoint. A nil httpClient keeps the library default.
func NewOpenAICompatibleModel(cfg config.LLMConfig, httpClient *http.Client) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}
	return llm, nil
}

// NewOllamaModel creates a langchaingo client for a local Ollama server.
func NewOllamaModel(cfg config.CompleterConfig, httpClient *http.Client) (llms.Model, error) {
	if cfg.ServerURL == "" || cfg.Model == "" {
		return nil, fmt.Errorf("ollama completer requires server_url and model")
	}
	opts := []ollama.Option{
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
	}
	if httpClient != nil {
		opts = append(opts, ollama.WithHTTPClient(httpClient))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
	}
	return llm, nil
}

// NewCompleterModel picks the one-shot model backend from cfg.Completer.
func NewCompleterModel(cfg config.LLMConfig, httpClient *http.Client) (llms.Model, error) {
	switch cfg.Completer.Provider {
	case "", "openai":
		return NewOpenAICompatibleModel(cfg, httpClient)
	case "ollama":
		return NewOllamaModel(cfg.Completer, httpClient)
	default:
		return nil, fmt.Errorf("unsupported completer provider: %s", cfg.Completer.Provider)
	}
}

func (c *LangchainCompleter) Complete(ctx context.Context, prompt string) (string, *domain.Usage, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", nil, domain.NewLLMServiceError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil, domain.NewLLMServiceError(fmt.Errorf("empty response from model"))
	}

	choice := resp.Choices[0]
	text := stripThinking(choice.Content)
	usage := usageFromGenerationInfo(choice.GenerationInfo)
	logger.Get().Debug("Model completion finished",
		zap.Int("prompt_chars", len([]rune(prompt))),
		zap.Int("reply_chars", len([]rune(text))))
	return text, usage, nil
}

// stripThinking removes a <think>...</think> block some reasoning models
// inline in their answer.
func stripThinking(s string) string {
	cleaned := s
	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			cleaned = cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):]
		}
	}
	return strings.TrimSpace(cleaned)
}

func usageFromGenerationInfo(info map[string]any) *domain.Usage {
	if info == nil {
		return nil
	}
	return domain.NewUsage(
		intFrom(info["PromptTokens"]),
		intFrom(info["CompletionTokens"]),
		intFrom(info["TotalTokens"]),
	)
}

func intFrom(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

var _ domain.Completer = (*LangchainCompleter)(nil)
