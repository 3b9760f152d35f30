package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentState string

const (
	PaymentCheckout  PaymentState = "checkout"
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentInvalid   PaymentState = "invalid"
	PaymentVoid      PaymentState = "void"
)

type SourceType string

const (
	SourceCredit SourceType = "store_credit"
	SourceCard   SourceType = "card"
)

// Payment is a claim of AmountCents against its order, drawn from a credit
// instrument or from an external card authorization. InstrumentID is uuid.Nil
// for card payments.
type Payment struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	MethodID     uuid.UUID
	SourceType   SourceType
	InstrumentID uuid.UUID
	AmountCents  int64
	AuthCode     string
	State        PaymentState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the payment still counts toward funding the order.
func (p *Payment) Valid() bool {
	return p.State != PaymentInvalid && p.State != PaymentVoid
}

// Final reports whether the payment can no longer change state.
func (p *Payment) Final() bool {
	return p.State == PaymentCompleted || p.State == PaymentInvalid || p.State == PaymentVoid
}

func (p *Payment) Invalidate() {
	p.State = PaymentInvalid
	p.UpdatedAt = time.Now().UTC()
}

func (p *Payment) MarkVoid() {
	p.State = PaymentVoid
	p.UpdatedAt = time.Now().UTC()
}

func (p *Payment) MarkCompleted() {
	p.State = PaymentCompleted
	p.UpdatedAt = time.Now().UTC()
}
