package domain

import (
	"context"
	"time"
)

// Hook runs at a named point of a lifecycle transition. A before-hook error
// blocks the transition; after-hook errors are reported but the transition
// stands.
type Hook func(ctx context.Context, o *Order) error

// StateMachine is the explicit order lifecycle. Hook points replace the
// runtime method interception the payment flow historically relied on: the
// credit core registers plain functions against the states it cares about.
type StateMachine struct {
	transitions map[OrderState][]OrderState
	before      map[OrderState][]Hook
	after       map[OrderState][]Hook
}

// NewStateMachine builds the checkout lifecycle: the forward chain
// cart→address→delivery→payment→confirm→complete, one step back from every
// pre-complete state, and cancellation from any non-terminal state.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[OrderState][]OrderState{
			StateCart:     {StateAddress, StateCanceled},
			StateAddress:  {StateDelivery, StateCart, StateCanceled},
			StateDelivery: {StatePayment, StateAddress, StateCanceled},
			StatePayment:  {StateConfirm, StateDelivery, StateCanceled},
			StateConfirm:  {StateComplete, StatePayment, StateCanceled},
		},
		before: make(map[OrderState][]Hook),
		after:  make(map[OrderState][]Hook),
	}
}

func (m *StateMachine) BeforeEnter(s OrderState, h Hook) {
	m.before[s] = append(m.before[s], h)
}

func (m *StateMachine) AfterEnter(s OrderState, h Hook) {
	m.after[s] = append(m.after[s], h)
}

func (m *StateMachine) CanTransition(from, to OrderState) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the order to the target state. Before-hooks run first and
// any error aborts with the order state unchanged. After-hooks run once the
// state is set; the first after-hook error is returned but the new state is
// kept, matching the capture/void semantics where settlement problems must
// not roll back a completed or canceled order.
func (m *StateMachine) Transition(ctx context.Context, o *Order, to OrderState) error {
	if !m.CanTransition(o.State, to) {
		return ErrInvalidTransition
	}
	for _, h := range m.before[to] {
		if err := h(ctx, o); err != nil {
			return err
		}
	}
	o.State = to
	o.UpdatedAt = time.Now().UTC()
	for _, h := range m.after[to] {
		if err := h(ctx, o); err != nil {
			return err
		}
	}
	return nil
}
