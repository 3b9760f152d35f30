package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

type fakeOrders struct {
	orders     map[uuid.UUID]*domain.Order
	events     []OutboxEvent
	saves      int
	recomputes int
}

func newFakeOrders(orders ...*domain.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[uuid.UUID]*domain.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) SaveWithOutbox(_ context.Context, o *domain.Order, events ...OutboxEvent) error {
	f.orders[o.ID] = o
	f.events = append(f.events, events...)
	f.saves++
	return nil
}

func (f *fakeOrders) RecomputeTotals(_ context.Context, o *domain.Order) error {
	f.recomputes++
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
	return nil
}

func (f *fakeOrders) eventTypes() []string {
	types := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		types = append(types, ev.Type)
	}
	return types
}

type fakeInstruments struct {
	byCustomer map[uuid.UUID][]*domain.CreditInstrument
	captureErr map[uuid.UUID]error
	created    []*domain.CreditInstrument
}

func newFakeInstruments() *fakeInstruments {
	return &fakeInstruments{
		byCustomer: make(map[uuid.UUID][]*domain.CreditInstrument),
		captureErr: make(map[uuid.UUID]error),
	}
}

func (f *fakeInstruments) add(ci *domain.CreditInstrument) {
	f.byCustomer[ci.CustomerID] = append(f.byCustomer[ci.CustomerID], ci)
}

func (f *fakeInstruments) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]*domain.CreditInstrument, error) {
	return f.byCustomer[customerID], nil
}

func (f *fakeInstruments) Create(_ context.Context, ci *domain.CreditInstrument) error {
	f.created = append(f.created, ci)
	f.add(ci)
	return nil
}

func (f *fakeInstruments) Capture(_ context.Context, id uuid.UUID, amountCents int64) error {
	if err := f.captureErr[id]; err != nil {
		return err
	}
	for _, list := range f.byCustomer {
		for _, ci := range list {
			if ci.ID == id {
				if ci.BalanceCents < amountCents {
					return domain.ErrInsufficientBalance
				}
				ci.BalanceCents -= amountCents
				return nil
			}
		}
	}
	return domain.ErrInstrumentNotFound
}

type fakeMethods struct {
	methods []*domain.PaymentMethod
}

func (f *fakeMethods) ActiveByKind(_ context.Context, kind domain.MethodKind) ([]*domain.PaymentMethod, error) {
	var out []*domain.PaymentMethod
	for _, m := range f.methods {
		if m.Kind == kind && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func singleCreditMethod() *fakeMethods {
	return &fakeMethods{methods: []*domain.PaymentMethod{
		{ID: uuid.New(), Kind: domain.MethodStoreCredit, Name: "Store credit", Active: true},
	}}
}

type amountUpdate struct {
	authCode    string
	amountCents int64
}

type fakeGateway struct {
	updates []amountUpdate
	voids   []string
}

func (f *fakeGateway) UpdateAmount(_ context.Context, authCode string, amountCents int64) error {
	f.updates = append(f.updates, amountUpdate{authCode: authCode, amountCents: amountCents})
	return nil
}

func (f *fakeGateway) Void(_ context.Context, authCode string) error {
	f.voids = append(f.voids, authCode)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testOrder(customer uuid.UUID, totalCents int64) *domain.Order {
	o := domain.NewOrder(uuid.New(), "R"+uuid.NewString()[:8], customer, "USD", totalCents)
	o.State = domain.StatePayment
	return o
}

func testInstrument(customer uuid.UUID, balanceCents int64, priority int, age time.Duration) *domain.CreditInstrument {
	now := time.Now().UTC().Add(-age)
	return &domain.CreditInstrument{
		ID:           uuid.New(),
		CustomerID:   customer,
		Code:         "79927398713",
		Currency:     "USD",
		BalanceCents: balanceCents,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func cardPayment(o *domain.Order, amountCents int64) *domain.Payment {
	now := time.Now().UTC()
	return &domain.Payment{
		ID:          uuid.New(),
		OrderID:     o.ID,
		MethodID:    uuid.New(),
		SourceType:  domain.SourceCard,
		AmountCents: amountCents,
		AuthCode:    uuid.NewString(),
		State:       domain.PaymentCheckout,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
