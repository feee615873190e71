// Package feedback asks a chat-completion model to evaluate submitted copy from a
// persona's viewpoint. It never fails the caller: every error turns into the
// configured fallback text plus a tagged reason.
package feedback

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const DefaultFallback = "feedback unavailable"

var (
	errNoChoices   = errors.New("completion returned no choices")
	errEmptyText   = errors.New("completion text is empty")
	errBreakerOpen = errors.New("completion breaker open")
	errNoAPIKey    = errors.New("openai api key not set")
)

// Completer is the part of the OpenAI client the generator needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Options struct {
	Model        string
	SystemPrompt string
	FallbackText string
	Temperature  float32
	MaxTokens    int
}

// OptionsFromConfig copies the generation knobs out of the OpenAI section.
func OptionsFromConfig(cfg config.OpenAIConfig) Options {
	return Options{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		FallbackText: cfg.FallbackText,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	}
}

// NewOpenAIClient returns nil when no API key is configured; the generator then
// answers every request with the fallback text.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c.HTTPClient = &http.Client{Timeout: timeout}

	return openai.NewClientWithConfig(c)
}

type Generator struct {
	client  Completer
	opts    Options
	breaker *Breaker
	log     *zap.Logger
}

func New(client Completer, opts Options, breaker *Breaker, log *zap.Logger) *Generator {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.FallbackText == "" {
		opts.FallbackText = DefaultFallback
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		client:  client,
		opts:    opts,
		breaker: breaker,
		log:     log.With(zap.String("component", "feedback")),
	}
}

// Generate performs exactly one completion request (none when unconfigured or the
// breaker is open). Identical inputs are never cached.
func (g *Generator) Generate(ctx context.Context, copyText string, p persona.Persona) model.Feedback {
	if g.client == nil || isNilClient(g.client) {
		return g.fallback(p, model.ConfigurationError("feedback.generate", errNoAPIKey))
	}
	if !g.breaker.Allow() {
		return g.fallback(p, model.UpstreamError("feedback.generate", errBreakerOpen))
	}

	text, err := g.complete(ctx, copyText, p)
	g.breaker.Record(err)
	if err != nil {
		return g.fallback(p, model.UpstreamError("feedback.generate", err))
	}

	return model.Feedback{Persona: p.Label, Text: text}
}

func (g *Generator) complete(ctx context.Context, copyText string, p persona.Persona) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.Prompt(copyText),
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		Messages:    messages,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyText
	}
	return text, nil
}

func (g *Generator) fallback(p persona.Persona, err error) model.Feedback {
	g.log.Warn("feedback generation failed, using fallback",
		zap.String("persona", p.ID),
		zap.String("kind", model.KindOf(err)),
		zap.Error(err),
	)
	return model.Feedback{
		Persona:  p.Label,
		Text:     g.opts.FallbackText,
		Fallback: true,
		Err:      err,
	}
}

// isNilClient catches a typed-nil *openai.Client stored in the interface.
func isNilClient(c Completer) bool {
	oc, ok := c.(*openai.Client)
	return ok && oc == nil
}
