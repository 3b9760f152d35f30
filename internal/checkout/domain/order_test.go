package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func payment(source SourceType, amountCents int64, state PaymentState) *Payment {
	return &Payment{
		ID:          uuid.New(),
		SourceType:  source,
		AmountCents: amountCents,
		State:       state,
	}
}

func TestValidPaymentsTotalExcludesTerminalStates(t *testing.T) {
	o := NewOrder(uuid.New(), "R2001", uuid.New(), "USD", 100)
	o.Payments = []*Payment{
		payment(SourceCredit, 30, PaymentCheckout),
		payment(SourceCredit, 20, PaymentCompleted),
		payment(SourceCard, 50, PaymentPending),
		payment(SourceCredit, 99, PaymentInvalid),
		payment(SourceCard, 99, PaymentVoid),
	}

	require.Equal(t, int64(100), o.ValidPaymentsTotal())
	require.Equal(t, int64(50), o.ValidCreditTotal())
}

func TestSecondaryPaymentsExcludeCompletedAndCredit(t *testing.T) {
	o := NewOrder(uuid.New(), "R2002", uuid.New(), "USD", 100)
	open := payment(SourceCard, 50, PaymentCheckout)
	o.Payments = []*Payment{
		payment(SourceCredit, 30, PaymentCheckout),
		payment(SourceCard, 20, PaymentCompleted),
		payment(SourceCard, 10, PaymentInvalid),
		open,
	}

	require.Equal(t, []*Payment{open}, o.SecondaryPayments())
}

func TestDropInvalidPayments(t *testing.T) {
	o := NewOrder(uuid.New(), "R2003", uuid.New(), "USD", 100)
	kept := payment(SourceCredit, 30, PaymentCheckout)
	o.Payments = []*Payment{kept, payment(SourceCard, 20, PaymentInvalid)}

	require.True(t, o.DropInvalidPayments())
	require.Equal(t, []*Payment{kept}, o.Payments)
	require.False(t, o.DropInvalidPayments())
}
