package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func adhd(t *testing.T) persona.Persona {
	t.Helper()
	r, err := persona.NewRegistry(config.PersonasConfig{
		Default: "adhd",
		Catalog: []config.PersonaConfig{{ID: "adhd", Label: "ADHD", Template: "Evaluate as {{persona}}:\n{{copy}}"}},
	})
	require.NoError(t, err)
	return r.Default()
}

func completion(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: text}}},
	}
}

func TestGenerateTrimsFirstChoice(t *testing.T) {
	m := new(mockCompleter)
	m.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-test" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Content == "Evaluate as ADHD:\nClick OK."
	})).Return(completion("\n  Clarity: 5/5  \n"), nil).Once()

	g := New(m, Options{Model: "gpt-test", SystemPrompt: "sys", Temperature: 0.4}, nil, zaptest.NewLogger(t))
	fb := g.Generate(context.Background(), "Click OK.", adhd(t))

	assert.Equal(t, "Clarity: 5/5", fb.Text)
	assert.Equal(t, "ADHD", fb.Persona)
	assert.False(t, fb.Fallback)
	assert.NoError(t, fb.Err)
	m.AssertExpectations(t)
}

func TestGenerateNoCacheAcrossCalls(t *testing.T) {
	m := new(mockCompleter)
	m.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(completion("ok"), nil).Twice()

	g := New(m, Options{}, nil, zaptest.NewLogger(t))
	g.Generate(context.Background(), "same", adhd(t))
	g.Generate(context.Background(), "same", adhd(t))

	m.AssertNumberOfCalls(t, "CreateChatCompletion", 2)
}

func TestGenerateFallbacks(t *testing.T) {
	cases := map[string]struct {
		resp openai.ChatCompletionResponse
		err  error
	}{
		"transport error": {err: errors.New("timeout")},
		"no choices":      {resp: openai.ChatCompletionResponse{}},
		"blank text":      {resp: completion("   ")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := new(mockCompleter)
			m.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tc.resp, tc.err).Once()

			g := New(m, Options{}, nil, zaptest.NewLogger(t))
			fb := g.Generate(context.Background(), "Click OK.", adhd(t))

			assert.True(t, fb.Fallback)
			assert.Equal(t, DefaultFallback, fb.Text)
			assert.ErrorIs(t, fb.Err, model.ErrUpstreamService)
			m.AssertExpectations(t)
		})
	}
}

func TestGenerateWithoutClientIsConfigurationFallback(t *testing.T) {
	g := New(NewOpenAIClient(config.OpenAIConfig{}), Options{FallbackText: "n/a"}, nil, zaptest.NewLogger(t))
	fb := g.Generate(context.Background(), "Click OK.", adhd(t))

	assert.True(t, fb.Fallback)
	assert.Equal(t, "n/a", fb.Text)
	assert.ErrorIs(t, fb.Err, model.ErrConfiguration)
}

func TestGenerateOpenBreakerSkipsCall(t *testing.T) {
	m := new(mockCompleter)
	m.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, errors.New("503")).Once()

	g := New(m, Options{}, NewBreaker(1, 0), zaptest.NewLogger(t))
	first := g.Generate(context.Background(), "x", adhd(t))
	second := g.Generate(context.Background(), "x", adhd(t))

	assert.True(t, first.Fallback)
	assert.True(t, second.Fallback)
	assert.ErrorIs(t, second.Err, errBreakerOpen)
	m.AssertNumberOfCalls(t, "CreateChatCompletion", 1)
}

func TestGenerateAgainstOpenAIEndpoint(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  Cognitive load: 2/5\n"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	cfg := config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini", Temperature: 0.4}
	g := New(NewOpenAIClient(cfg), OptionsFromConfig(cfg), nil, zaptest.NewLogger(t))
	fb := g.Generate(context.Background(), "Click OK.", adhd(t))

	require.NoError(t, fb.Err)
	assert.Equal(t, "Cognitive load: 2/5", fb.Text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "Click OK.")
}

func TestGenerateUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "insufficient_quota"}}`))
	}))
	defer srv.Close()

	cfg := config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}
	g := New(NewOpenAIClient(cfg), OptionsFromConfig(cfg), nil, zaptest.NewLogger(t))
	fb := g.Generate(context.Background(), "Click OK.", adhd(t))

	assert.True(t, fb.Fallback)
	assert.Equal(t, DefaultFallback, fb.Text)
	assert.ErrorIs(t, fb.Err, model.ErrUpstreamService)
}
