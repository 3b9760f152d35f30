package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

// OutboxEvent is a domain event queued for publication in the same
// transaction as the aggregate write.
type OutboxEvent struct {
	Type    string
	Payload []byte
}

type OrderRepository interface {
	// Get loads the order with its payments.
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// SaveWithOutbox persists the aggregate (payments absent from the
	// aggregate are deleted) and queues the events atomically.
	SaveWithOutbox(ctx context.Context, o *domain.Order, events ...OutboxEvent) error
	// RecomputeTotals refreshes the order's outstanding balance and payment
	// outcome from its payments, on the aggregate and in storage.
	RecomputeTotals(ctx context.Context, o *domain.Order) error
}

type InstrumentRepository interface {
	// ListByCustomer returns the customer's instruments in draw-down order:
	// priority ASC, created_at ASC, id ASC.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.CreditInstrument, error)
	Create(ctx context.Context, ci *domain.CreditInstrument) error
	// Capture debits the instrument. Fails with ErrInsufficientBalance
	// instead of overdrawing.
	Capture(ctx context.Context, id uuid.UUID, amountCents int64) error
}

type MethodRegistry interface {
	ActiveByKind(ctx context.Context, kind domain.MethodKind) ([]*domain.PaymentMethod, error)
}

// CardGateway is the external processor holding the secondary payment's
// authorization.
type CardGateway interface {
	UpdateAmount(ctx context.Context, authCode string, amountCents int64) error
	Void(ctx context.Context, authCode string) error
}
