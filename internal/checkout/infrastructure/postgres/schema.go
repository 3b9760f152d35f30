package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                uuid PRIMARY KEY,
	number            text NOT NULL UNIQUE,
	customer_id       uuid NOT NULL,
	currency          text NOT NULL,
	total_cents       bigint NOT NULL,
	outstanding_cents bigint NOT NULL,
	state             text NOT NULL,
	payment_state     text NOT NULL,
	created_at        timestamptz NOT NULL,
	updated_at        timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
	id            uuid PRIMARY KEY,
	order_id      uuid NOT NULL REFERENCES orders(id),
	method_id     uuid NOT NULL,
	source_type   text NOT NULL,
	instrument_id uuid NOT NULL,
	amount_cents  bigint NOT NULL,
	auth_code     text NOT NULL,
	state         text NOT NULL,
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS payments_order_idx ON payments(order_id);

CREATE TABLE IF NOT EXISTS credit_instruments (
	id            uuid PRIMARY KEY,
	customer_id   uuid NOT NULL,
	code          text NOT NULL UNIQUE,
	currency      text NOT NULL,
	balance_cents bigint NOT NULL CHECK (balance_cents >= 0),
	priority      int NOT NULL,
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS credit_instruments_customer_idx ON credit_instruments(customer_id, priority, created_at, id);

CREATE TABLE IF NOT EXISTS payment_methods (
	id     uuid PRIMARY KEY,
	kind   text NOT NULL,
	name   text NOT NULL,
	active boolean NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS outbox (
	id             bigserial PRIMARY KEY,
	aggregate_type text NOT NULL,
	aggregate_id   text NOT NULL,
	type           text NOT NULL,
	payload        bytea NOT NULL,
	traceparent    text NOT NULL DEFAULT '',
	status         text NOT NULL,
	relay_id       text,
	lease_until    timestamptz,
	retry_count    int NOT NULL DEFAULT 0,
	last_error     text,
	created_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox(status, id);
`

// EnsureSchema creates the tables on startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
