package domain

import "github.com/google/uuid"

const (
	EventCreditAllocated   = "CreditAllocated"
	EventOrderFunded       = "OrderFunded"
	EventFundingFailed     = "FundingFailed"
	EventPaymentCaptured   = "PaymentCaptured"
	EventPaymentVoided     = "PaymentVoided"
	EventOrderStateChanged = "OrderStateChanged"
)

type CreditAllocated struct {
	OrderID        uuid.UUID `json:"order_id"`
	Draws          []Draw    `json:"draws"`
	RemainingCents int64     `json:"remaining_cents"`
}

type OrderFunded struct {
	OrderID    uuid.UUID `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
}

type FundingFailed struct {
	OrderID    uuid.UUID `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
	PaidCents  int64     `json:"paid_cents"`
}

type PaymentCaptured struct {
	OrderID      uuid.UUID `json:"order_id"`
	PaymentID    uuid.UUID `json:"payment_id"`
	InstrumentID uuid.UUID `json:"instrument_id"`
	AmountCents  int64     `json:"amount_cents"`
}

type PaymentVoided struct {
	OrderID      uuid.UUID `json:"order_id"`
	PaymentID    uuid.UUID `json:"payment_id"`
	InstrumentID uuid.UUID `json:"instrument_id"`
	AmountCents  int64     `json:"amount_cents"`
}

// OrderStateChanged is published on every committed transition and is also
// the inbound shape the storefront sends to drive transitions over Kafka.
type OrderStateChanged struct {
	OrderID uuid.UUID  `json:"order_id"`
	From    OrderState `json:"from"`
	To      OrderState `json:"to"`
}
