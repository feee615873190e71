package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/jmehdipour/ux-autorater/internal/metrics"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/payment"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const ctxPaymentEvent = "payment_event"

// Verifier authenticates a raw webhook body against its signature header.
type Verifier interface {
	Verify(payload []byte, header string) (payment.Event, error)
}

// EventFromCtx extracts the verified event set by SignatureMiddleware.
func EventFromCtx(c echo.Context) (payment.Event, bool) {
	ev, ok := c.Get(ctxPaymentEvent).(payment.Event)
	return ev, ok
}

// limitBody wraps the body in a MaxBytesReader so an oversized payload surfaces
// as *http.MaxBytesError from the read below.
func limitBody(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if maxBytes > 0 {
				req := c.Request()
				req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			}
			return next(c)
		}
	}
}

// SignatureMiddleware reads the raw body and verifies it before any handler sees
// it. Rejections are 400 with no side effects.
func SignatureMiddleware(v Verifier, header string, maxBytes int64, log *zap.Logger) echo.MiddlewareFunc {
	if header == "" {
		header = "Stripe-Signature"
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := limitBody(maxBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return limit(func(c echo.Context) error {
			payload, err := io.ReadAll(c.Request().Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
				}
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
			}

			ev, err := v.Verify(payload, c.Request().Header.Get(header))
			if err != nil {
				metrics.WebhookEventsTotal.WithLabelValues("unverified", "rejected").Inc()
				fields := []zap.Field{
					zap.String("remote_ip", c.RealIP()),
					zap.String("kind", model.KindOf(err)),
					zap.Error(err),
				}
				if errors.Is(err, model.ErrConfiguration) {
					log.Error("webhook secret missing, rejecting event", fields...)
				} else {
					log.Warn("webhook signature rejected", fields...)
				}
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid signature"})
			}

			c.Set(ctxPaymentEvent, ev)
			return next(c)
		})
	}
}
