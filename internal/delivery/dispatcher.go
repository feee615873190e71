// Package delivery emails rendered reports to purchasers.
package delivery

import (
	"context"
	"errors"
	"strings"

	"github.com/jmehdipour/ux-autorater/internal/artifact"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"go.uber.org/zap"
)

const (
	PDFContentType = "application/pdf"
	DefaultSubject = "Your UX Autorater Full Report"
	DefaultBody    = "Thanks for purchasing! Your full UX feedback report is attached."
)

var (
	errNoRecipient = errors.New("purchaser address is empty")
	errNoSender    = errors.New("sender address not set")
	errNoReport    = errors.New("report is empty")
)

// Mailer is an outbound mail transport.
type Mailer interface {
	// Ready reports missing credentials without touching the network.
	Ready() error
	Send(ctx context.Context, e model.Email) error
}

type Options struct {
	From    string
	Subject string
	Body    string
}

func OptionsFromConfig(cfg config.MailConfig) Options {
	return Options{From: cfg.From, Subject: cfg.Subject, Body: cfg.Body}
}

type Dispatcher struct {
	mailer Mailer
	store  *artifact.Store
	opts   Options
	log    *zap.Logger
}

func NewDispatcher(mailer Mailer, store *artifact.Store, opts Options, log *zap.Logger) *Dispatcher {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Body == "" {
		opts.Body = DefaultBody
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		mailer: mailer,
		store:  store,
		opts:   opts,
		log:    log.With(zap.String("component", "delivery")),
	}
}

// Deliver sends the report as the only attachment and then discards the stored
// artifact, whatever the outcome. Failures come back in the receipt, never as panics
// or errors to the caller.
func (d *Dispatcher) Deliver(ctx context.Context, address string, rep model.Report) model.Receipt {
	defer d.discard(rep)

	log := d.log.With(zap.String("to", address), zap.String("report_id", rep.ID))

	if strings.TrimSpace(address) == "" {
		return d.receipt(log, model.DeliveryFailed, model.ConfigurationError("delivery.deliver", errNoRecipient))
	}
	if strings.TrimSpace(d.opts.From) == "" {
		return d.receipt(log, model.DeliverySkipped, model.ConfigurationError("delivery.deliver", errNoSender))
	}
	if d.mailer == nil {
		return d.receipt(log, model.DeliverySkipped, model.ConfigurationError("delivery.deliver", errors.New("no mailer")))
	}
	if err := d.mailer.Ready(); err != nil {
		return d.receipt(log, model.DeliverySkipped, err)
	}

	data := rep.Data
	if len(data) == 0 && d.store != nil && rep.Filename != "" {
		if stored, err := d.store.Get(rep.Filename); err == nil {
			data = stored
		}
	}
	if len(data) == 0 {
		return d.receipt(log, model.DeliveryFailed, model.UpstreamError("delivery.deliver", errNoReport))
	}

	email := model.Email{
		From:    d.opts.From,
		To:      address,
		Subject: d.opts.Subject,
		Body:    d.opts.Body,
		Attachments: []model.Attachment{{
			Name:        attachmentName(rep),
			ContentType: PDFContentType,
			Data:        data,
		}},
	}
	if err := d.mailer.Send(ctx, email); err != nil {
		return d.receipt(log, model.DeliveryFailed, model.UpstreamError("delivery.deliver", err))
	}

	return d.receipt(log, model.DeliverySent, nil)
}

func (d *Dispatcher) receipt(log *zap.Logger, status model.DeliveryStatus, err error) model.Receipt {
	if err != nil {
		log.Error("report delivery failed",
			zap.String("status", status.String()),
			zap.String("kind", model.KindOf(err)),
			zap.Error(err),
		)
	} else {
		log.Info("report delivered")
	}
	return model.Receipt{Status: status, Err: err}
}

// discard is best-effort: a failed removal is logged and otherwise ignored.
func (d *Dispatcher) discard(rep model.Report) {
	if d.store == nil || rep.Filename == "" {
		return
	}
	if err := d.store.Remove(rep.Filename); err != nil {
		d.log.Warn("could not remove report artifact",
			zap.String("file", rep.Filename),
			zap.Error(err),
		)
	}
}

func attachmentName(rep model.Report) string {
	if rep.Filename != "" {
		return rep.Filename
	}
	if rep.ID != "" {
		return rep.ID + ".pdf"
	}
	return "UX_Report.pdf"
}
