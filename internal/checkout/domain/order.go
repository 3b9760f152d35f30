package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderState string

const (
	StateCart     OrderState = "cart"
	StateAddress  OrderState = "address"
	StateDelivery OrderState = "delivery"
	StatePayment  OrderState = "payment"
	StateConfirm  OrderState = "confirm"
	StateComplete OrderState = "complete"
	StateCanceled OrderState = "canceled"
)

type PaymentOutcome string

const (
	OutcomeBalanceDue PaymentOutcome = "balance_due"
	OutcomePaid       PaymentOutcome = "paid"
	OutcomeVoid       PaymentOutcome = "void"
)

// Order is the aggregate this service operates on. CustomerID is uuid.Nil for
// guest orders; guests have no credit instruments by definition.
type Order struct {
	ID               uuid.UUID
	Number           string
	CustomerID       uuid.UUID
	Currency         string
	TotalCents       int64
	OutstandingCents int64
	State            OrderState
	PaymentState     PaymentOutcome
	Payments         []*Payment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewOrder(id uuid.UUID, number string, customer uuid.UUID, currency string, totalCents int64) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:               id,
		Number:           number,
		CustomerID:       customer,
		Currency:         currency,
		TotalCents:       totalCents,
		OutstandingCents: totalCents,
		State:            StateCart,
		PaymentState:     OutcomeBalanceDue,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CheckoutCreditPayments returns credit payments still in checkout state, the
// set a re-allocation is allowed to replace.
func (o *Order) CheckoutCreditPayments() []*Payment {
	var out []*Payment
	for _, p := range o.Payments {
		if p.SourceType == SourceCredit && p.State == PaymentCheckout {
			out = append(out, p)
		}
	}
	return out
}

// SecondaryPayments returns valid, not-yet-completed payments drawn from a
// non-credit source. The reconciler requires at most one of these.
func (o *Order) SecondaryPayments() []*Payment {
	var out []*Payment
	for _, p := range o.Payments {
		if p.SourceType != SourceCredit && p.Valid() && p.State != PaymentCompleted {
			out = append(out, p)
		}
	}
	return out
}

// ValidPaymentsTotal sums the amounts of all payments that still count toward
// funding the order.
func (o *Order) ValidPaymentsTotal() int64 {
	var sum int64
	for _, p := range o.Payments {
		if p.Valid() {
			sum += p.AmountCents
		}
	}
	return sum
}

// ValidCreditTotal sums the amounts of valid credit payments.
func (o *Order) ValidCreditTotal() int64 {
	var sum int64
	for _, p := range o.Payments {
		if p.SourceType == SourceCredit && p.Valid() {
			sum += p.AmountCents
		}
	}
	return sum
}

// DropInvalidPayments removes payments already rejected by a prior attempt
// and reports whether anything was removed.
func (o *Order) DropInvalidPayments() bool {
	kept := o.Payments[:0]
	for _, p := range o.Payments {
		if p.State != PaymentInvalid {
			kept = append(kept, p)
		}
	}
	dropped := len(kept) != len(o.Payments)
	o.Payments = kept
	return dropped
}

// RemovePayment deletes a payment from the aggregate by identity.
func (o *Order) RemovePayment(id uuid.UUID) {
	kept := o.Payments[:0]
	for _, p := range o.Payments {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	o.Payments = kept
}
