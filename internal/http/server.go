package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/http/middleware"
	"github.com/jmehdipour/ux-autorater/internal/metrics"
	"github.com/jmehdipour/ux-autorater/internal/payment"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// WebhookReceiver verifies notifications and turns purchase events into orders.
type WebhookReceiver interface {
	middleware.Verifier
	OrderExtractor
}

// Deps are the components the routes are wired to. Dedupe and Limiter may be nil.
type Deps struct {
	Receiver WebhookReceiver
	Checkout payment.CheckoutCreator
	Runner   OrderRunner
	Personas *persona.Registry
	Dedupe   Deduper
	Limiter  middleware.Counter
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, d Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "http"))

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(glog.OFF)
	e.Validator = newValidator()
	e.IPExtractor = ipExtractor(cfg.HTTP.TrustedProxies, log)
	e.Use(
		echoMid.Recover(),
		echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{Generator: uuid.NewString}),
		requestLogger(log),
	)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	sigMW := middleware.SignatureMiddleware(d.Receiver, cfg.Stripe.SignatureHeader, cfg.HTTP.MaxBodyBytes, log)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Counter:        d.Limiter,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      cfg.RateLimit.KeyPrefix,
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	e.GET("/personas", listPersonasHandler(d.Personas))
	e.POST("/webhook", webhookHandler(d.Receiver, d.Runner, d.Dedupe, log), sigMW)
	checkoutMW := []echo.MiddlewareFunc{rlMW}
	if cfg.HTTP.MaxBodyBytes > 0 {
		checkoutMW = append(checkoutMW, echoMid.BodyLimit(strconv.FormatInt(cfg.HTTP.MaxBodyBytes, 10)))
	}
	e.POST("/create-checkout-session", createCheckoutHandler(d.Checkout, d.Personas, log), checkoutMW...)

	return &Server{e: e, log: log}
}

// ipExtractor uses the TCP peer unless trusted proxy ranges are configured, in
// which case X-Forwarded-For is honoured only for hops inside those ranges.
func ipExtractor(cidrs []string, log *zap.Logger) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			log.Warn("ignoring invalid trusted proxy range", zap.String("cidr", c), zap.Error(err))
			continue
		}
		opts = append(opts, echo.TrustIPRange(n))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	opts = append(opts, echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false))
	return echo.ExtractIPFromXFFHeader(opts...)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

func (s *Server) Handler() http.Handler { return s.e }

// Start blocks until the server stops; a graceful shutdown is not an error.
func (s *Server) Start(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
