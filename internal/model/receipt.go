package model

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

// Receipt is the outcome of one delivery attempt. It is logged, never stored.
type Receipt struct {
	Status DeliveryStatus
	Err    error
}

func (r Receipt) OK() bool { return r.Status == DeliverySent }
