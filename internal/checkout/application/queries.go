package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// Queries is the read-only credit surface used by storefront display and by
// checkout to decide whether a card step is needed at all.
type Queries struct {
	instruments InstrumentRepository
}

func NewQueries(instruments InstrumentRepository) *Queries {
	return &Queries{instruments: instruments}
}

// TotalAvailableCredit is the sum of the customer's instrument balances, zero
// for guest orders.
func (q *Queries) TotalAvailableCredit(ctx context.Context, o *domain.Order) (int64, error) {
	if o.CustomerID == uuid.Nil {
		return 0, nil
	}
	instruments, err := q.instruments.ListByCustomer(ctx, o.CustomerID)
	if err != nil {
		return 0, err
	}
	return domain.TotalBalance(instruments), nil
}

func (q *Queries) FullyCoveredByCredit(ctx context.Context, o *domain.Order) (bool, error) {
	if o.CustomerID == uuid.Nil {
		return false, nil
	}
	available, err := q.TotalAvailableCredit(ctx, o)
	if err != nil {
		return false, err
	}
	return available >= o.TotalCents, nil
}

func (q *Queries) RequiresPayment(ctx context.Context, o *domain.Order) (bool, error) {
	covered, err := q.FullyCoveredByCredit(ctx, o)
	if err != nil {
		return false, err
	}
	return !covered, nil
}

// TotalApplicableCredit is the committed credit sum once the order reached
// confirm or complete, and before that an estimate: the available credit
// clamped to the order total.
func (q *Queries) TotalApplicableCredit(ctx context.Context, o *domain.Order) (int64, error) {
	if o.State == domain.StateConfirm || o.State == domain.StateComplete {
		return o.ValidCreditTotal(), nil
	}
	available, err := q.TotalAvailableCredit(ctx, o)
	if err != nil {
		return 0, err
	}
	if available > o.TotalCents {
		return o.TotalCents, nil
	}
	return available, nil
}

func (q *Queries) RemainderAfterCredit(ctx context.Context, o *domain.Order) (int64, error) {
	applicable, err := q.TotalApplicableCredit(ctx, o)
	if err != nil {
		return 0, err
	}
	return o.TotalCents - applicable, nil
}
