package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// Lifecycle owns the order state machine and wires the credit core into its
// hook points: allocation before every spend-relevant state, reconciliation
// before confirm, capture after complete, void after cancel.
type Lifecycle struct {
	log        *slog.Logger
	orders     OrderRepository
	machine    *domain.StateMachine
	allocator  *Allocator
	reconciler *Reconciler
	settlement *Settlement
}

func NewLifecycle(log *slog.Logger, orders OrderRepository, allocator *Allocator, reconciler *Reconciler, settlement *Settlement) *Lifecycle {
	l := &Lifecycle{
		log:        log,
		orders:     orders,
		machine:    domain.NewStateMachine(),
		allocator:  allocator,
		reconciler: reconciler,
		settlement: settlement,
	}

	allocate := func(ctx context.Context, o *domain.Order) error {
		_, err := l.allocator.Allocate(ctx, o)
		return err
	}
	for _, st := range []domain.OrderState{domain.StateAddress, domain.StateDelivery, domain.StatePayment, domain.StateComplete} {
		l.machine.BeforeEnter(st, allocate)
	}
	l.machine.BeforeEnter(domain.StateConfirm, l.reconciler.Reconcile)
	l.machine.AfterEnter(domain.StateComplete, l.settlement.Complete)
	l.machine.AfterEnter(domain.StateCanceled, l.settlement.Cancel)

	return l
}

// Transition loads the order, runs the machine, and persists the new state
// with an OrderStateChanged event. A before-hook failure (configuration or
// funding) aborts with the order untouched in its previous state; an
// after-hook failure is logged, the transition stands.
func (l *Lifecycle) Transition(ctx context.Context, orderID uuid.UUID, to domain.OrderState) (*domain.Order, error) {
	o, err := l.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := o.State

	if err := l.machine.Transition(ctx, o, to); err != nil {
		if o.State != to {
			return nil, err
		}
		l.log.Error("post-transition hook failed", "order_id", o.ID, "state", to, "err", err)
	}

	payload, err := json.Marshal(domain.OrderStateChanged{OrderID: o.ID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	if err := l.orders.SaveWithOutbox(ctx, o, OutboxEvent{Type: domain.EventOrderStateChanged, Payload: payload}); err != nil {
		return nil, err
	}

	l.log.Info("order transitioned", "order_id", o.ID, "from", from, "to", to)
	return o, nil
}
