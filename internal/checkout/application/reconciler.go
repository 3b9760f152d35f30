package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// Reconciler adjusts the single secondary (non-credit) payment so that
// credit plus secondary exactly fund the order.
type Reconciler struct {
	log       *slog.Logger
	orders    OrderRepository
	allocator *Allocator
	gateway   CardGateway
}

func NewReconciler(log *slog.Logger, orders OrderRepository, allocator *Allocator, gateway CardGateway) *Reconciler {
	return &Reconciler{log: log, orders: orders, allocator: allocator, gateway: gateway}
}

// Reconcile re-runs the allocator, then resizes or invalidates the secondary
// payment to match the leftover, and finally checks conservation: the valid
// payments must sum to the order total or the order cannot be confirmed.
func (r *Reconciler) Reconcile(ctx context.Context, o *domain.Order) error {
	remaining, err := r.allocator.Allocate(ctx, o)
	if err != nil {
		return err
	}

	secondary := o.SecondaryPayments()
	if len(secondary) > 1 {
		return &domain.ConfigError{Reason: "multiple secondary payments on one order"}
	}

	var events []OutboxEvent
	if len(secondary) == 1 {
		other := secondary[0]
		switch {
		case remaining == 0:
			// Fully covered by credit; the card authorization is superseded.
			other.Invalidate()
			if err := r.gateway.Void(ctx, other.AuthCode); err != nil {
				r.log.Error("gateway void failed", "order_id", o.ID, "payment_id", other.ID, "err", err)
			}
		case other.SourceType != domain.SourceCard:
			return &domain.ConfigError{Reason: "unsupported secondary payment source " + string(other.SourceType)}
		default:
			other.AmountCents = remaining
			other.UpdatedAt = time.Now().UTC()
			if err := r.gateway.UpdateAmount(ctx, other.AuthCode, remaining); err != nil {
				r.log.Error("gateway amount update failed", "order_id", o.ID, "payment_id", other.ID, "err", err)
			}
		}
	}

	paid := o.ValidPaymentsTotal()
	if paid != o.TotalCents {
		payload, merr := json.Marshal(domain.FundingFailed{
			OrderID:    o.ID,
			TotalCents: o.TotalCents,
			PaidCents:  paid,
		})
		if merr != nil {
			return merr
		}
		events = append(events, OutboxEvent{Type: domain.EventFundingFailed, Payload: payload})
		if err := r.orders.SaveWithOutbox(ctx, o, events...); err != nil {
			return err
		}
		return &domain.FundingError{OrderID: o.ID.String(), TotalCents: o.TotalCents, PaidCents: paid}
	}

	payload, err := json.Marshal(domain.OrderFunded{OrderID: o.ID, TotalCents: o.TotalCents})
	if err != nil {
		return err
	}
	events = append(events, OutboxEvent{Type: domain.EventOrderFunded, Payload: payload})
	if err := r.orders.SaveWithOutbox(ctx, o, events...); err != nil {
		return err
	}

	r.log.Info("order funded", "order_id", o.ID, "total_cents", o.TotalCents, "credit_cents", o.ValidCreditTotal())
	return nil
}
