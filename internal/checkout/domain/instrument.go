package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreditInstrument is one unit of stored value owned by a customer. Priority
// orders draw-down: lower ranks are spent first, ties broken by CreatedAt then
// ID. Balances only move on capture or void, never on allocation.
type CreditInstrument struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	Code         string
	Currency     string
	BalanceCents int64
	Priority     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAuthCode issues a fresh opaque authorization token for a draw against
// this instrument.
func (ci *CreditInstrument) NewAuthCode() string {
	return uuid.NewString()
}

// TotalBalance sums the remaining balances of a set of instruments.
func TotalBalance(instruments []*CreditInstrument) int64 {
	var sum int64
	for _, ci := range instruments {
		sum += ci.BalanceCents
	}
	return sum
}
