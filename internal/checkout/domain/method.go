package domain

import "github.com/google/uuid"

type MethodKind string

const (
	MethodStoreCredit MethodKind = "store_credit"
	MethodCard        MethodKind = "card"
)

// PaymentMethod is a configured way of paying. Exactly one active
// store-credit method may exist in an environment; the allocator treats any
// other count as a configuration error.
type PaymentMethod struct {
	ID     uuid.UUID
	Kind   MethodKind
	Name   string
	Active bool
}
