package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// Allocator covers as much of an order's outstanding balance as the
// customer's credit instruments allow, in priority order, leaving the
// remainder for the secondary payment.
type Allocator struct {
	log         *slog.Logger
	orders      OrderRepository
	instruments InstrumentRepository
	methods     MethodRegistry
}

func NewAllocator(log *slog.Logger, orders OrderRepository, instruments InstrumentRepository, methods MethodRegistry) *Allocator {
	return &Allocator{log: log, orders: orders, instruments: instruments, methods: methods}
}

// Allocate recomputes the order's credit payments and returns the amount
// store credit could not cover. Configuration is validated before any payment
// is touched, so a configuration error leaves the previous allocation intact.
// Re-running on an unchanged order is a no-op: the target plan is diffed
// against the existing checkout credit payments and only the delta is
// applied.
func (a *Allocator) Allocate(ctx context.Context, o *domain.Order) (int64, error) {
	methods, err := a.methods.ActiveByKind(ctx, domain.MethodStoreCredit)
	if err != nil {
		return 0, err
	}
	if len(methods) > 1 {
		return 0, &domain.ConfigError{Reason: "multiple active store-credit payment methods"}
	}

	var instruments []*domain.CreditInstrument
	if o.CustomerID != uuid.Nil {
		instruments, err = a.instruments.ListByCustomer(ctx, o.CustomerID)
		if err != nil {
			return 0, err
		}
	}
	if len(methods) == 0 && domain.TotalBalance(instruments) > 0 {
		return 0, &domain.ConfigError{Reason: "store credit available but no active store-credit payment method"}
	}

	draws, remaining := domain.PlanAllocation(o.OutstandingCents, instruments)
	diff := domain.DiffAllocation(o.CheckoutCreditPayments(), draws)

	dropped := o.DropInvalidPayments()
	if diff.Empty() && !dropped {
		return remaining, nil
	}

	for _, stale := range diff.Remove {
		o.RemovePayment(stale.ID)
	}
	now := time.Now().UTC()
	for _, draw := range diff.Create {
		ci := findInstrument(instruments, draw.InstrumentID)
		if ci == nil {
			return 0, domain.ErrInstrumentNotFound
		}
		o.Payments = append(o.Payments, &domain.Payment{
			ID:           uuid.New(),
			OrderID:      o.ID,
			MethodID:     methods[0].ID,
			SourceType:   domain.SourceCredit,
			InstrumentID: ci.ID,
			AmountCents:  draw.AmountCents,
			AuthCode:     ci.NewAuthCode(),
			State:        domain.PaymentCheckout,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	payload, err := json.Marshal(domain.CreditAllocated{
		OrderID:        o.ID,
		Draws:          draws,
		RemainingCents: remaining,
	})
	if err != nil {
		return 0, err
	}
	if err := a.orders.SaveWithOutbox(ctx, o, OutboxEvent{Type: domain.EventCreditAllocated, Payload: payload}); err != nil {
		return 0, err
	}

	a.log.Info("credit allocated",
		"order_id", o.ID,
		"draws", len(draws),
		"remaining_cents", remaining,
	)
	return remaining, nil
}

func findInstrument(instruments []*domain.CreditInstrument, id uuid.UUID) *domain.CreditInstrument {
	for _, ci := range instruments {
		if ci.ID == id {
			return ci
		}
	}
	return nil
}
