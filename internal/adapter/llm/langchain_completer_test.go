package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"exam-agent/internal/config"
	"exam-agent/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainCompleter_Complete(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: "<think>推理过程</think>\n答案：B\n解析：因为如此",
		GenerationInfo: map[string]any{
			"PromptTokens":     10,
			"CompletionTokens": 5,
			"TotalTokens":      15,
		},
	}}}}

	c := NewLangchainCompleter(model, 0.3)
	text, usage, err := c.Complete(context.Background(), "补全答案")
	require.NoError(t, err)
	assert.Equal(t, "答案：B\n解析：因为如此", text)
	require.NotNil(t, usage)
	assert.Equal(t, &domain.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, usage)

	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
}

func TestLangchainCompleter_NoUsage(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}}

	text, usage, err := NewLangchainCompleter(model, 0).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Nil(t, usage)
}

func TestLangchainCompleter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"model error", &fakeModel{err: errors.New("upstream down")}},
		{"no choices", &fakeModel{resp: &llms.ContentResponse{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewLangchainCompleter(tt.model, 0).Complete(context.Background(), "p")
			require.Error(t, err)
			assert.ErrorIs(t, err, &domain.DomainError{Code: domain.ErrLLMServiceError})
		})
	}
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "answer", stripThinking("  answer  "))
	assert.Equal(t, "a b", stripThinking("a <think>x</think>b"))
	assert.Equal(t, "<think>unterminated", stripThinking("<think>unterminated"))
}

func TestNewCompleterModel(t *testing.T) {
	openaiModel, err := NewCompleterModel(config.LLMConfig{APIKey: "sk-test", Model: "qwen-plus", BaseURL: "http://localhost:1/v1"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, openaiModel)

	ollamaModel, err := NewCompleterModel(config.LLMConfig{Completer: config.CompleterConfig{
		Provider: "ollama", ServerURL: "http://localhost:11434", Model: "qwen3:0.6b",
	}}, &http.Client{})
	require.NoError(t, err)
	assert.NotNil(t, ollamaModel)

	_, err = NewCompleterModel(config.LLMConfig{Completer: config.CompleterConfig{Provider: "ollama"}}, nil)
	assert.Error(t, err)

	_, err = NewCompleterModel(config.LLMConfig{Completer: config.CompleterConfig{Provider: "gemini"}}, nil)
	assert.Error(t, err)
}

type countingTransport struct {
	calls atomic.Int32
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestNewCompleterModel_OpenAIUsesHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"qwen-plus",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"答案：A\n解析：甲"},"finish_reason":"stop"}],` +
			`"usage":{"prompt_tokens":4,"completion_tokens":3,"total_tokens":7}}`))
	}))
	defer server.Close()

	transport := &countingTransport{}
	model, err := NewCompleterModel(config.LLMConfig{
		APIKey:  "sk-test",
		Model:   "qwen-plus",
		BaseURL: server.URL + "/v1",
	}, &http.Client{Transport: transport})
	require.NoError(t, err)

	text, _, err := NewLangchainCompleter(model, 0).Complete(context.Background(), "补全答案")
	require.NoError(t, err)
	assert.Equal(t, "答案：A\n解析：甲", text)
	assert.Equal(t, int32(1), transport.calls.Load())
}
