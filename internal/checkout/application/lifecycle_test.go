package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

func newLifecycleUnderTest(orders *fakeOrders, instruments *fakeInstruments, gw *fakeGateway) *Lifecycle {
	allocator := NewAllocator(testLogger(), orders, instruments, singleCreditMethod())
	reconciler := NewReconciler(testLogger(), orders, allocator, gw)
	settlement := NewSettlement(testLogger(), orders, instruments)
	return NewLifecycle(testLogger(), orders, allocator, reconciler, settlement)
}

func TestTransitionThroughCheckout(t *testing.T) {
	customer := uuid.New()
	o := testOrder(customer, 70)
	o.State = domain.StateCart
	orders := newFakeOrders(o)
	instruments := newFakeInstruments()
	instruments.add(testInstrument(customer, 100, 1, time.Hour))

	lifecycle := newLifecycleUnderTest(orders, instruments, &fakeGateway{})
	ctx := context.Background()

	for _, to := range []domain.OrderState{
		domain.StateAddress, domain.StateDelivery, domain.StatePayment,
		domain.StateConfirm, domain.StateComplete,
	} {
		got, err := lifecycle.Transition(ctx, o.ID, to)
		require.NoError(t, err, "entering %s", to)
		require.Equal(t, to, got.State)
	}

	// Conservation at completion, with every credit payment captured.
	require.Equal(t, o.TotalCents, o.ValidPaymentsTotal())
	for _, p := range o.Payments {
		require.Equal(t, domain.PaymentCompleted, p.State)
	}
	require.Contains(t, orders.eventTypes(), domain.EventOrderFunded)
	require.Contains(t, orders.eventTypes(), domain.EventPaymentCaptured)
	require.Contains(t, orders.eventTypes(), domain.EventOrderStateChanged)
}

func TestConfirmBlockedWhenUnderfunded(t *testing.T) {
	customer := uuid.New()
	o := testOrder(customer, 80)
	o.State = domain.StatePayment
	orders := newFakeOrders(o)
	instruments := newFakeInstruments()
	instruments.add(testInstrument(customer, 30, 1, time.Hour))

	lifecycle := newLifecycleUnderTest(orders, instruments, &fakeGateway{})

	_, err := lifecycle.Transition(context.Background(), o.ID, domain.StateConfirm)
	var funding *domain.FundingError
	require.ErrorAs(t, err, &funding)
	require.Equal(t, domain.StatePayment, o.State)
}

func TestCancellationReversal(t *testing.T) {
	customer := uuid.New()
	o := testOrder(customer, 40)
	o.State = domain.StateConfirm
	instruments := newFakeInstruments()
	ci := testInstrument(customer, 40, 1, time.Hour)
	instruments.add(ci)
	pending := creditPayment(o, ci, 40, domain.PaymentPending)
	o.Payments = append(o.Payments, pending)
	orders := newFakeOrders(o)

	lifecycle := newLifecycleUnderTest(orders, instruments, &fakeGateway{})

	got, err := lifecycle.Transition(context.Background(), o.ID, domain.StateCanceled)
	require.NoError(t, err)
	require.Equal(t, domain.StateCanceled, got.State)
	require.Equal(t, domain.PaymentVoid, pending.State)
	require.Equal(t, int64(40), ci.BalanceCents)
	require.Equal(t, 1, orders.recomputes)
}

func TestTransitionRejectsSkippingStates(t *testing.T) {
	o := testOrder(uuid.New(), 40)
	o.State = domain.StateCart
	orders := newFakeOrders(o)

	lifecycle := newLifecycleUnderTest(orders, newFakeInstruments(), &fakeGateway{})

	_, err := lifecycle.Transition(context.Background(), o.ID, domain.StateComplete)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.StateCart, o.State)
}

func TestTransitionUnknownOrder(t *testing.T) {
	lifecycle := newLifecycleUnderTest(newFakeOrders(), newFakeInstruments(), &fakeGateway{})

	_, err := lifecycle.Transition(context.Background(), uuid.New(), domain.StateAddress)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
