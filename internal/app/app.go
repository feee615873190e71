// Package app builds the pipeline components from configuration once at startup.
package app

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/ux-autorater/internal/artifact"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/db"
	"github.com/jmehdipour/ux-autorater/internal/delivery"
	"github.com/jmehdipour/ux-autorater/internal/feedback"
	httpSrv "github.com/jmehdipour/ux-autorater/internal/http"
	"github.com/jmehdipour/ux-autorater/internal/http/middleware"
	"github.com/jmehdipour/ux-autorater/internal/idempotency"
	"github.com/jmehdipour/ux-autorater/internal/payment"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"github.com/jmehdipour/ux-autorater/internal/pipeline"
	"github.com/jmehdipour/ux-autorater/internal/report"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Config    config.Config
	Log       *zap.Logger
	Personas  *persona.Registry
	Store     *artifact.Store
	Generator *feedback.Generator
	Renderer  *report.Renderer
	Delivery  *delivery.Dispatcher
	Pipeline  *pipeline.Pipeline
	Receiver  *payment.Receiver
	Checkout  *payment.Checkout
	Redis     *redis.Client
}

// New wires every component. Missing credentials are not fatal here: the affected
// stage reports a configuration error per order instead.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	personas, err := persona.NewRegistry(cfg.Personas)
	if err != nil {
		return nil, fmt.Errorf("personas: %w", err)
	}

	store, err := artifact.NewOS(cfg.Report.Dir)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}

	var completer feedback.Completer
	if c := feedback.NewOpenAIClient(cfg.OpenAI); c != nil {
		completer = c
	}
	breaker := feedback.NewBreaker(cfg.OpenAI.Breaker.FailThreshold, cfg.OpenAI.Breaker.OpenFor)
	generator := feedback.New(completer, feedback.OptionsFromConfig(cfg.OpenAI), breaker, log)

	renderer := report.New(store, report.OptionsFromConfig(cfg.Report), log)
	dispatcher := delivery.NewDispatcher(
		delivery.NewSMTPMailer(cfg.Mail), store, delivery.OptionsFromConfig(cfg.Mail), log)

	rdb, err := db.NewRedisClient(db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Personas:  personas,
		Store:     store,
		Generator: generator,
		Renderer:  renderer,
		Delivery:  dispatcher,
		Pipeline:  pipeline.New(personas, generator, renderer, dispatcher, log),
		Receiver:  payment.NewReceiver(cfg.Stripe.WebhookSecret, cfg.Stripe.Tolerance),
		Checkout:  payment.NewCheckout(cfg.Stripe),
		Redis:     rdb,
	}
	a.reportGaps()
	return a, nil
}

// ServerDeps returns the HTTP wiring. The idempotency guard is attached only when
// enabled and Redis is available.
func (a *App) ServerDeps() httpSrv.Deps {
	d := httpSrv.Deps{
		Receiver: a.Receiver,
		Checkout: a.Checkout,
		Runner:   a.Pipeline,
		Personas: a.Personas,
		Limiter:  middleware.NewRedisCounter(a.Redis),
	}
	if a.Config.Idempotency.Enabled {
		if a.Redis == nil {
			a.Log.Warn("idempotency enabled but redis not configured; duplicates will be processed")
		} else {
			d.Dedupe = idempotency.New(a.Redis, a.Config.Idempotency.TTL, a.Config.Idempotency.KeyPrefix)
		}
	}
	return d
}

func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}

// reportGaps logs missing secrets once at startup.
func (a *App) reportGaps() {
	cfg := a.Config
	if !a.Receiver.Configured() {
		a.Log.Error("stripe webhook secret not set; every webhook will be rejected")
	}
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		a.Log.Warn("stripe secret key not set; checkout sessions cannot be created")
	}
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		a.Log.Warn("openai api key not set; reports will carry fallback feedback")
	}
	if err := delivery.NewSMTPMailer(cfg.Mail).Ready(); err != nil {
		a.Log.Warn("mail transport not ready; reports will not be emailed", zap.Error(err))
	}
}
