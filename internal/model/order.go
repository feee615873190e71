package model

import (
	"strings"
	"time"
)

// PlaceholderCopy is used when a purchase arrives without submitted copy.
const PlaceholderCopy = "No UX copy provided"

// Order is one fulfilled purchase. It is built from verified event metadata
// and lives for a single pipeline run.
type Order struct {
	EventID          string    `json:"event_id"`
	PurchaserAddress string    `json:"purchaser_address"`
	Persona          string    `json:"persona"`
	SubmittedCopy    string    `json:"submitted_copy"`
	CreatedAt        time.Time `json:"created_at"`
}

// Normalize trims fields and applies the documented defaults for missing metadata.
func (o Order) Normalize(defaultPersona string) Order {
	o.PurchaserAddress = strings.TrimSpace(o.PurchaserAddress)
	o.Persona = strings.TrimSpace(o.Persona)
	if o.Persona == "" {
		o.Persona = defaultPersona
	}
	if strings.TrimSpace(o.SubmittedCopy) == "" {
		o.SubmittedCopy = PlaceholderCopy
	}
	return o
}

// Feedback is the generated evaluation for one Order.
// Fallback is set when the text is the fixed substitute; Err carries the reason.
type Feedback struct {
	Persona  string
	Text     string
	Fallback bool
	Err      error
}

// Report is a rendered document waiting in the artifact store.
type Report struct {
	ID       string
	Filename string
	Data     []byte
}
