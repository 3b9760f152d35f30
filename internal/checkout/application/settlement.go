package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// Settlement finalizes credit payments when an order completes and unwinds
// them when it is canceled.
type Settlement struct {
	log         *slog.Logger
	orders      OrderRepository
	instruments InstrumentRepository
}

func NewSettlement(log *slog.Logger, orders OrderRepository, instruments InstrumentRepository) *Settlement {
	return &Settlement{log: log, orders: orders, instruments: instruments}
}

// Complete captures every valid credit payment against its instrument. A
// capture failure on one instrument is logged and does not block the others.
func (s *Settlement) Complete(ctx context.Context, o *domain.Order) error {
	var events []OutboxEvent
	for _, p := range o.Payments {
		if p.SourceType != domain.SourceCredit || !p.Valid() || p.State == domain.PaymentCompleted {
			continue
		}
		if err := s.instruments.Capture(ctx, p.InstrumentID, p.AmountCents); err != nil {
			s.log.Error("credit capture failed",
				"order_id", o.ID,
				"payment_id", p.ID,
				"instrument_id", p.InstrumentID,
				"err", err,
			)
			continue
		}
		p.MarkCompleted()
		payload, err := json.Marshal(domain.PaymentCaptured{
			OrderID:      o.ID,
			PaymentID:    p.ID,
			InstrumentID: p.InstrumentID,
			AmountCents:  p.AmountCents,
		})
		if err != nil {
			return err
		}
		events = append(events, OutboxEvent{Type: domain.EventPaymentCaptured, Payload: payload})
	}
	return s.orders.SaveWithOutbox(ctx, o, events...)
}

// Cancel voids every credit payment that has not reached a final state,
// releasing its hold, then forces the order's payment totals to be
// recomputed: generic cancellation handling assumes a card-only order and
// gets credit-covered ones wrong.
func (s *Settlement) Cancel(ctx context.Context, o *domain.Order) error {
	var events []OutboxEvent
	for _, p := range o.Payments {
		if p.SourceType != domain.SourceCredit || p.Final() {
			continue
		}
		p.MarkVoid()
		payload, err := json.Marshal(domain.PaymentVoided{
			OrderID:      o.ID,
			PaymentID:    p.ID,
			InstrumentID: p.InstrumentID,
			AmountCents:  p.AmountCents,
		})
		if err != nil {
			return err
		}
		events = append(events, OutboxEvent{Type: domain.EventPaymentVoided, Payload: payload})
	}
	if err := s.orders.SaveWithOutbox(ctx, o, events...); err != nil {
		return err
	}
	return s.orders.RecomputeTotals(ctx, o)
}
