package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

var ErrNoSecretKey = errors.New("stripe secret key not set")

type CheckoutRequest struct {
	Email   string
	Persona string
	UXInput string
}

// CheckoutCreator opens a hosted checkout page for one report purchase.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

type Checkout struct {
	client session.Client
	cfg    config.StripeConfig
}

func NewCheckout(cfg config.StripeConfig) *Checkout {
	backend := stripe.GetBackend(stripe.APIBackend)
	if cfg.BackendURL != "" {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(strings.TrimRight(cfg.BackendURL, "/")),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
	}
	return &Checkout{
		client: session.Client{B: backend, Key: strings.TrimSpace(cfg.SecretKey)},
		cfg:    cfg,
	}
}

// CreateCheckout returns the hosted checkout URL. Persona and copy travel as session
// metadata and come back in the completed-checkout webhook.
func (c *Checkout) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if c.client.Key == "" {
		return "", model.ConfigurationError("payment.checkout", ErrNoSecretKey)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(c.cfg.SuccessURL),
		CancelURL:     stripe.String(c.cfg.CancelURL),
		LineItems:     []*stripe.CheckoutSessionLineItemParams{c.lineItem()},
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	params.AddMetadata(MetaPersona, req.Persona)
	params.AddMetadata(MetaUXInput, req.UXInput)

	sess, err := c.client.New(params)
	if err != nil {
		return "", model.UpstreamError("payment.checkout", err)
	}
	if sess.URL == "" {
		return "", model.UpstreamError("payment.checkout", fmt.Errorf("session %s has no url", sess.ID))
	}
	return sess.URL, nil
}

func (c *Checkout) lineItem() *stripe.CheckoutSessionLineItemParams {
	if c.cfg.PriceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(c.cfg.PriceID),
			Quantity: stripe.Int64(1),
		}
	}

	currency := c.cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(c.cfg.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(c.cfg.ProductName),
			},
		},
		Quantity: stripe.Int64(1),
	}
}
