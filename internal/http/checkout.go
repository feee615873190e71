package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/payment"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type checkoutReq struct {
	Email   string `json:"email" validate:"required,email"`
	Persona string `json:"persona" validate:"required"`
	UXInput string `json:"ux_input" validate:"required,max=500"`
}

type requestValidator struct{ v *validator.Validate }

func newValidator() *requestValidator { return &requestValidator{v: validator.New()} }

func (rv *requestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }

func createCheckoutHandler(creator payment.CheckoutCreator, personas *persona.Registry, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req checkoutReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Persona = strings.TrimSpace(req.Persona)
		req.UXInput = strings.TrimSpace(req.UXInput)

		if err := c.Validate(&req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + strings.ToLower(verrs[0].Field())})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		p, err := personas.Lookup(req.Persona)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown persona"})
		}

		url, err := creator.CreateCheckout(c.Request().Context(), payment.CheckoutRequest{
			Email:   req.Email,
			Persona: p.ID,
			UXInput: req.UXInput,
		})
		if err != nil {
			if errors.Is(err, model.ErrConfiguration) {
				log.Error("checkout not configured", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "checkout unavailable"})
			}
			log.Error("checkout session failed", zap.String("kind", model.KindOf(err)), zap.Error(err))
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "payment provider error"})
		}

		return c.JSON(http.StatusOK, map[string]string{"checkout_url": url})
	}
}

type personaView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func listPersonasHandler(personas *persona.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		all := personas.All()
		out := make([]personaView, 0, len(all))
		for _, p := range all {
			out = append(out, personaView{ID: p.ID, Label: p.Label})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"default":  personas.Default().ID,
			"personas": out,
		})
	}
}
