package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInstrumentNotFound  = errors.New("credit instrument not found")
	ErrInsufficientBalance = errors.New("insufficient instrument balance")
	ErrInvalidTransition   = errors.New("invalid state transition")
)

// ConfigError marks a broken payment-method or payment setup. It is fatal for
// the current operation and never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "payment configuration: " + e.Reason
}

// FundingError reports that the valid payments do not add up to the order
// total after reconciliation. The caller must not advance the order; the
// customer may retry with different payment details.
type FundingError struct {
	OrderID    string
	TotalCents int64
	PaidCents  int64
}

func (e *FundingError) Error() string {
	return fmt.Sprintf("unable to fund order %s: payments total %d, order total %d",
		e.OrderID, e.PaidCents, e.TotalCents)
}
