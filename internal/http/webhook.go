package http

import (
	"context"
	"net/http"

	"github.com/jmehdipour/ux-autorater/internal/http/middleware"
	"github.com/jmehdipour/ux-autorater/internal/metrics"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/payment"
	"github.com/jmehdipour/ux-autorater/internal/pipeline"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// deliveryNotRendered is reported when the pipeline stopped before delivery.
const deliveryNotRendered = "not_rendered"

type OrderExtractor interface {
	Order(ev payment.Event) (model.Order, error)
}

type OrderRunner interface {
	Run(ctx context.Context, order model.Order) pipeline.Outcome
}

type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
}

// webhookHandler acknowledges every verified event with 200. Pipeline failures are
// logged and never change the response.
func webhookHandler(orders OrderExtractor, runner OrderRunner, dedupe Deduper, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ev, ok := middleware.EventFromCtx(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		}
		l := log.With(zap.String("event_id", ev.ID), zap.String("type", ev.Type))

		if !ev.Completed() {
			metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "ignored").Inc()
			return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
		}

		order, err := orders.Order(ev)
		if err != nil {
			metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "skipped").Inc()
			l.Error("purchase event unusable, not processing", zap.Error(err))
			return c.JSON(http.StatusOK, map[string]string{"status": "skipped"})
		}

		// the order is paid for; a dropped connection must not abort fulfilment
		ctx := context.WithoutCancel(c.Request().Context())

		if dedupe != nil {
			first, err := dedupe.Claim(ctx, ev.ID)
			if err != nil {
				l.Warn("idempotency check failed, processing anyway", zap.Error(err))
			}
			if !first {
				metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "duplicate").Inc()
				l.Info("duplicate delivery ignored")
				return c.JSON(http.StatusOK, map[string]string{"status": "duplicate"})
			}
		}

		out := runner.Run(ctx, order)
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "processed").Inc()

		delivery := out.Receipt.Status.String()
		if out.RenderErr != nil {
			delivery = deliveryNotRendered
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "success",
			"delivery": delivery,
		})
	}
}
