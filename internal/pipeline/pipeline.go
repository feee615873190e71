// Package pipeline runs one order through generation, rendering and delivery.
package pipeline

import (
	"context"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/metrics"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"go.uber.org/zap"
)

type Generator interface {
	Generate(ctx context.Context, copyText string, p persona.Persona) model.Feedback
}

type Renderer interface {
	Render(order model.Order, fb model.Feedback) (model.Report, error)
}

type Dispatcher interface {
	Deliver(ctx context.Context, address string, rep model.Report) model.Receipt
}

// Outcome records what happened to one order. RenderErr is set when no document
// could be produced, in which case nothing was sent.
type Outcome struct {
	Order     model.Order
	Feedback  model.Feedback
	ReportID  string
	RenderErr error
	Receipt   model.Receipt
}

func (o Outcome) Delivered() bool { return o.RenderErr == nil && o.Receipt.OK() }

type Pipeline struct {
	personas  *persona.Registry
	generator Generator
	renderer  Renderer
	delivery  Dispatcher
	log       *zap.Logger
}

func New(personas *persona.Registry, g Generator, r Renderer, d Dispatcher, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		personas:  personas,
		generator: g,
		renderer:  r,
		delivery:  d,
		log:       log.With(zap.String("component", "pipeline")),
	}
}

// Run is synchronous and calls each stage at most once. A generation failure does
// not stop the run; a render failure does, since there is nothing to send.
func (p *Pipeline) Run(ctx context.Context, order model.Order) Outcome {
	order = order.Normalize(p.personas.Default().ID)
	log := p.log.With(
		zap.String("event_id", order.EventID),
		zap.String("to", order.PurchaserAddress),
	)
	metrics.OrdersTotal.WithLabelValues("received", "ok").Inc()

	lens, found := p.personas.Resolve(order.Persona)
	if !found {
		log.Warn("unknown persona, using default",
			zap.String("persona", order.Persona),
			zap.String("default", lens.ID),
		)
	}

	out := Outcome{Order: order}

	start := time.Now()
	out.Feedback = p.generator.Generate(ctx, order.SubmittedCopy, lens)
	observe("feedback", start)
	if out.Feedback.Fallback {
		metrics.OrdersTotal.WithLabelValues("feedback", "fallback").Inc()
		log.Warn("feedback fell back",
			zap.String("kind", model.KindOf(out.Feedback.Err)),
			zap.Error(out.Feedback.Err),
		)
	} else {
		metrics.OrdersTotal.WithLabelValues("feedback", "ok").Inc()
	}

	start = time.Now()
	rep, err := p.renderer.Render(order, out.Feedback)
	observe("render", start)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("render", "failed").Inc()
		log.Error("report render failed", zap.Error(err))
		out.RenderErr = err
		return out
	}
	metrics.OrdersTotal.WithLabelValues("render", "ok").Inc()
	out.ReportID = rep.ID

	start = time.Now()
	out.Receipt = p.delivery.Deliver(ctx, order.PurchaserAddress, rep)
	observe("delivery", start)
	metrics.OrdersTotal.WithLabelValues("delivery", deliveryLabel(out.Receipt.Status)).Inc()

	log.Info("order processed",
		zap.String("report_id", out.ReportID),
		zap.Bool("feedback_fallback", out.Feedback.Fallback),
		zap.String("delivery", out.Receipt.Status.String()),
	)
	return out
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func deliveryLabel(s model.DeliveryStatus) string {
	switch s {
	case model.DeliverySent:
		return "ok"
	case model.DeliverySkipped:
		return "skipped"
	default:
		return "failed"
	}
}
