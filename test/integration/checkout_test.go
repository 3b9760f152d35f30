//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/checkoutflow/storecredit/internal/checkout/application"
	"github.com/checkoutflow/storecredit/internal/checkout/domain"
	checkoutpg "github.com/checkoutflow/storecredit/internal/checkout/infrastructure/postgres"
	"github.com/checkoutflow/storecredit/pkg/logging"
)

func TestCreditAllocationRoundTrip(t *testing.T) {
	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, checkoutpg.EnsureSchema(ctx, pool))

	log := logging.New("error")
	orders := checkoutpg.NewOrderRepository(log, pool)
	instruments := checkoutpg.NewInstrumentStore(log, pool)
	methods := checkoutpg.NewMethodStore(pool)

	_, err = pool.Exec(ctx, `INSERT INTO payment_methods (id, kind, name, active) VALUES ($1,$2,$3,true)`,
		uuid.New(), domain.MethodStoreCredit, "Store credit")
	require.NoError(t, err)

	customer := uuid.New()
	now := time.Now().UTC()
	first := &domain.CreditInstrument{
		ID: uuid.New(), CustomerID: customer, Code: "79927398713", Currency: "USD",
		BalanceCents: 3000, Priority: 1, CreatedAt: now, UpdatedAt: now,
	}
	second := &domain.CreditInstrument{
		ID: uuid.New(), CustomerID: customer, Code: "49927398716", Currency: "USD",
		BalanceCents: 5000, Priority: 2, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, instruments.Create(ctx, first))
	require.NoError(t, instruments.Create(ctx, second))

	o := domain.NewOrder(uuid.New(), "R3001", customer, "USD", 7000)
	o.State = domain.StatePayment
	require.NoError(t, orders.SaveWithOutbox(ctx, o))

	allocator := application.NewAllocator(log, orders, instruments, methods)
	remaining, err := allocator.Allocate(ctx, o)
	require.NoError(t, err)
	require.Zero(t, remaining)

	reloaded, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Payments, 2)
	require.Equal(t, int64(7000), reloaded.ValidCreditTotal())

	// Re-running against the persisted order changes nothing.
	remaining, err = allocator.Allocate(ctx, reloaded)
	require.NoError(t, err)
	require.Zero(t, remaining)
	again, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, again.Payments, 2)

	// Completion captures against the instruments with a balance guard.
	settlement := application.NewSettlement(log, orders, instruments)
	again.State = domain.StateComplete
	require.NoError(t, settlement.Complete(ctx, again))

	rest, err := instruments.ListByCustomer(ctx, customer)
	require.NoError(t, err)
	require.Equal(t, int64(0), rest[0].BalanceCents)
	require.Equal(t, int64(1000), rest[1].BalanceCents)

	require.ErrorIs(t, instruments.Capture(ctx, rest[0].ID, 1), domain.ErrInsufficientBalance)
}
