package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/checkoutflow/storecredit/internal/checkout/application"
	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

type OrderRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOrderRepository(log *slog.Logger, pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{log: log, pool: pool}
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, number, customer_id, currency, total_cents, outstanding_cents, state, payment_state, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Number, &o.CustomerID, &o.Currency, &o.TotalCents, &o.OutstandingCents, &o.State, &o.PaymentState, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, method_id, source_type, instrument_id, amount_cents, auth_code, state, created_at, updated_at
		FROM payments WHERE order_id=$1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p := domain.Payment{OrderID: o.ID}
		if err := rows.Scan(&p.ID, &p.MethodID, &p.SourceType, &p.InstrumentID, &p.AmountCents, &p.AuthCode, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		o.Payments = append(o.Payments, &p)
	}
	return &o, rows.Err()
}

// SaveWithOutbox writes the order, upserts its payments, deletes payment rows
// no longer present on the aggregate, and queues the events, all in one
// transaction.
func (r *OrderRepository) SaveWithOutbox(ctx context.Context, o *domain.Order, events ...application.OutboxEvent) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	o.UpdatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO orders (id, number, customer_id, currency, total_cents, outstanding_cents, state, payment_state, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET total_cents=$5, outstanding_cents=$6, state=$7, payment_state=$8, updated_at=$10`,
		o.ID, o.Number, o.CustomerID, o.Currency, o.TotalCents, o.OutstandingCents, o.State, o.PaymentState, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	keep := make([]uuid.UUID, 0, len(o.Payments))
	batch := &pgx.Batch{}
	for _, p := range o.Payments {
		keep = append(keep, p.ID)
		batch.Queue(`INSERT INTO payments (id, order_id, method_id, source_type, instrument_id, amount_cents, auth_code, state, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET amount_cents=$6, state=$8, updated_at=$10`,
			p.ID, p.OrderID, p.MethodID, p.SourceType, p.InstrumentID, p.AmountCents, p.AuthCode, p.State, p.CreatedAt, p.UpdatedAt)
	}
	if batch.Len() > 0 {
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `DELETE FROM payments WHERE order_id=$1 AND NOT (id = ANY($2))`, o.ID, keep)
	if err != nil {
		return err
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	traceparent := carrier["traceparent"]
	for _, ev := range events {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status) VALUES ($1,$2,$3,$4,$5,'pending')`,
			"order", o.ID.String(), ev.Type, ev.Payload, traceparent)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// RecomputeTotals rebuilds the outstanding balance and payment outcome from
// the aggregate's payments and persists them.
func (r *OrderRepository) RecomputeTotals(ctx context.Context, o *domain.Order) error {
	var completed int64
	anyValid := false
	for _, p := range o.Payments {
		if p.State == domain.PaymentCompleted {
			completed += p.AmountCents
		}
		if p.Valid() {
			anyValid = true
		}
	}

	o.OutstandingCents = o.TotalCents - completed
	if o.OutstandingCents < 0 {
		o.OutstandingCents = 0
	}
	switch {
	case completed >= o.TotalCents && o.TotalCents > 0:
		o.PaymentState = domain.OutcomePaid
	case !anyValid:
		o.PaymentState = domain.OutcomeVoid
	default:
		o.PaymentState = domain.OutcomeBalanceDue
	}
	o.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `UPDATE orders SET outstanding_cents=$2, payment_state=$3, updated_at=$4 WHERE id=$1`,
		o.ID, o.OutstandingCents, o.PaymentState, o.UpdatedAt)
	return err
}

type InstrumentStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewInstrumentStore(log *slog.Logger, pool *pgxpool.Pool) *InstrumentStore {
	return &InstrumentStore{log: log, pool: pool}
}

func (s *InstrumentStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.CreditInstrument, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, customer_id, code, currency, balance_cents, priority, created_at, updated_at
		FROM credit_instruments WHERE customer_id=$1 ORDER BY priority, created_at, id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CreditInstrument
	for rows.Next() {
		var ci domain.CreditInstrument
		if err := rows.Scan(&ci.ID, &ci.CustomerID, &ci.Code, &ci.Currency, &ci.BalanceCents, &ci.Priority, &ci.CreatedAt, &ci.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ci)
	}
	return out, rows.Err()
}

func (s *InstrumentStore) Create(ctx context.Context, ci *domain.CreditInstrument) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO credit_instruments (id, customer_id, code, currency, balance_cents, priority, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ci.ID, ci.CustomerID, ci.Code, ci.Currency, ci.BalanceCents, ci.Priority, ci.CreatedAt, ci.UpdatedAt)
	return err
}

// Capture debits the instrument. The balance guard in the WHERE clause makes
// concurrent captures against the same instrument safe: the losing update
// matches zero rows instead of overdrawing.
func (s *InstrumentStore) Capture(ctx context.Context, id uuid.UUID, amountCents int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE credit_instruments SET balance_cents = balance_cents - $2, updated_at = now()
		WHERE id=$1 AND balance_cents >= $2`, id, amountCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

type MethodStore struct {
	pool *pgxpool.Pool
}

func NewMethodStore(pool *pgxpool.Pool) *MethodStore {
	return &MethodStore{pool: pool}
}

func (s *MethodStore) ActiveByKind(ctx context.Context, kind domain.MethodKind) ([]*domain.PaymentMethod, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, kind, name, active FROM payment_methods WHERE kind=$1 AND active ORDER BY id`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Kind, &m.Name, &m.Active); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
