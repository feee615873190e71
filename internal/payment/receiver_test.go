package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func completedPayload(object string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": %s}
	}`, object))
}

func sign(t *testing.T, payload []byte, secret string, at time.Time) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
		Scheme:    "v1",
	})
	return signed.Header
}

func TestVerifyAcceptsSignedEvent(t *testing.T) {
	payload := completedPayload(`{"id":"cs_1","object":"checkout.session","customer_details":{"email":"a@b.com"},"metadata":{"persona":"ADHD","ux_input":"Click OK."}}`)
	r := NewReceiver(testSecret, 5*time.Minute)

	ev, err := r.Verify(payload, sign(t, payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_test_1", ev.ID)
	assert.True(t, ev.Completed())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ev.Created)

	order, err := r.Order(ev)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", order.PurchaserAddress)
	assert.Equal(t, "ADHD", order.Persona)
	assert.Equal(t, "Click OK.", order.SubmittedCopy)
	assert.Equal(t, "evt_test_1", order.EventID)
}

func TestVerifyRejections(t *testing.T) {
	payload := completedPayload(`{"id":"cs_1","customer_email":"a@b.com"}`)
	good := sign(t, payload, testSecret, time.Now())

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"missing header", payload, ""},
		{"wrong secret", payload, sign(t, payload, "whsec_other", time.Now())},
		{"tampered body", completedPayload(`{"id":"cs_1","customer_email":"evil@b.com"}`), good},
		{"stale timestamp", payload, sign(t, payload, testSecret, time.Now().Add(-time.Hour))},
		{"garbage header", payload, "t=abc,v1=def"},
	}

	r := NewReceiver(testSecret, 5*time.Minute)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Verify(tt.payload, tt.header)
			assert.ErrorIs(t, err, model.ErrAuthentication)
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	payload := completedPayload(`{"id":"cs_1","customer_email":"a@b.com"}`)
	r := NewReceiver("  ", 0)
	assert.False(t, r.Configured())

	_, err := r.Verify(payload, sign(t, payload, testSecret, time.Now()))
	assert.ErrorIs(t, err, model.ErrAuthentication)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestOrderExtraction(t *testing.T) {
	r := NewReceiver(testSecret, 0)

	t.Run("falls back to customer_email", func(t *testing.T) {
		ev := Event{ID: "evt_2", Type: EventPurchaseDone, Data: []byte(`{"customer_email":"c@d.com","metadata":{"ux_copy":"Legacy copy"}}`)}
		order, err := r.Order(ev)
		require.NoError(t, err)
		assert.Equal(t, "c@d.com", order.PurchaserAddress)
		assert.Equal(t, "Legacy copy", order.SubmittedCopy)
		assert.Empty(t, order.Persona)
	})

	t.Run("missing purchaser", func(t *testing.T) {
		ev := Event{ID: "evt_3", Type: EventPurchaseDone, Data: []byte(`{"metadata":{"persona":"adhd"}}`)}
		_, err := r.Order(ev)
		assert.ErrorIs(t, err, ErrMissingPurchaser)
	})

	t.Run("other event type", func(t *testing.T) {
		_, err := r.Order(Event{ID: "evt_4", Type: "payment_intent.created"})
		assert.ErrorIs(t, err, ErrNotPurchase)
	})

	t.Run("missing metadata keeps blanks for defaults", func(t *testing.T) {
		ev := Event{ID: "evt_5", Type: EventPurchaseDone, Data: []byte(`{"customer_details":{"email":"a@b.com"}}`)}
		order, err := r.Order(ev)
		require.NoError(t, err)

		n := order.Normalize("adhd")
		assert.Equal(t, "adhd", n.Persona)
		assert.Equal(t, model.PlaceholderCopy, n.SubmittedCopy)
	})
}
