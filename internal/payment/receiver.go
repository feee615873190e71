// Package payment talks to the payment provider: it verifies inbound webhook
// notifications and creates checkout sessions.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Metadata keys echoed back from the checkout session.
const (
	MetaPersona       = "persona"
	MetaUXInput       = "ux_input"
	MetaUXCopyLegacy  = "ux_copy"
	EventPurchaseDone = string(stripe.EventTypeCheckoutSessionCompleted)
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrNoWebhookSecret  = errors.New("webhook secret not set")
	ErrMissingPurchaser = errors.New("event carries no purchaser address")
	ErrNotPurchase      = errors.New("event is not a completed purchase")
)

// Event is a notification whose signature has been checked.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Data    json.RawMessage
}

// Completed reports whether the event denotes a finished purchase.
func (e Event) Completed() bool { return e.Type == EventPurchaseDone }

type Receiver struct {
	secret    string
	tolerance time.Duration
}

func NewReceiver(secret string, tolerance time.Duration) *Receiver {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Receiver{secret: strings.TrimSpace(secret), tolerance: tolerance}
}

func (r *Receiver) Configured() bool { return r.secret != "" }

// Verify checks the signature header against the shared secret before anything in
// the payload is looked at. Every failure matches model.ErrAuthentication; a missing
// secret additionally matches model.ErrConfiguration.
func (r *Receiver) Verify(payload []byte, header string) (Event, error) {
	if r.secret == "" {
		return Event{}, model.AuthenticationError("payment.verify",
			model.ConfigurationError("payment.verify", ErrNoWebhookSecret))
	}
	if strings.TrimSpace(header) == "" {
		return Event{}, model.AuthenticationError("payment.verify", ErrMissingSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, header, r.secret, webhook.ConstructEventOptions{
		Tolerance:                r.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, model.AuthenticationError("payment.verify", err)
	}

	out := Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		out.Data = ev.Data.Raw
	}
	return out, nil
}

// Order extracts the purchase from a verified completed-checkout event. Persona and
// copy are returned as sent; defaults are applied by the caller.
func (r *Receiver) Order(ev Event) (model.Order, error) {
	if !ev.Completed() {
		return model.Order{}, fmt.Errorf("%w: %s", ErrNotPurchase, ev.Type)
	}

	var sess stripe.CheckoutSession
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &sess); err != nil {
			return model.Order{}, fmt.Errorf("decode checkout session: %w", err)
		}
	}

	address := ""
	if sess.CustomerDetails != nil {
		address = strings.TrimSpace(sess.CustomerDetails.Email)
	}
	if address == "" {
		address = strings.TrimSpace(sess.CustomerEmail)
	}
	if address == "" {
		return model.Order{}, ErrMissingPurchaser
	}

	copyText := sess.Metadata[MetaUXInput]
	if strings.TrimSpace(copyText) == "" {
		copyText = sess.Metadata[MetaUXCopyLegacy]
	}

	return model.Order{
		EventID:          ev.ID,
		PurchaserAddress: address,
		Persona:          sess.Metadata[MetaPersona],
		SubmittedCopy:    copyText,
		CreatedAt:        ev.Created,
	}, nil
}
