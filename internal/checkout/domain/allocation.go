package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Draw is one planned deduction from a credit instrument.
type Draw struct {
	InstrumentID uuid.UUID `json:"instrument_id"`
	AmountCents  int64     `json:"amount_cents"`
}

// PlanAllocation computes the greedy priority-ordered draw-down of
// outstandingCents across the given instruments. Instruments are consumed in
// (priority, created_at, id) order; empty instruments are skipped and no
// zero-amount draw is ever emitted. Returns the planned draws and the amount
// the instruments could not cover. Pure: nothing is mutated.
func PlanAllocation(outstandingCents int64, instruments []*CreditInstrument) ([]Draw, int64) {
	ordered := make([]*CreditInstrument, len(instruments))
	copy(ordered, instruments)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	remaining := outstandingCents
	var draws []Draw
	for _, ci := range ordered {
		if remaining == 0 {
			break
		}
		if ci.BalanceCents == 0 {
			continue
		}
		amount := ci.BalanceCents
		if amount > remaining {
			amount = remaining
		}
		draws = append(draws, Draw{InstrumentID: ci.ID, AmountCents: amount})
		remaining -= amount
	}
	return draws, remaining
}

// AllocationDiff is the minimal set of changes turning the existing checkout
// credit payments into the target plan.
type AllocationDiff struct {
	Create []Draw
	Remove []*Payment
}

// Empty reports whether applying the diff would change nothing, which is what
// re-running an allocation on an unchanged order produces.
func (d AllocationDiff) Empty() bool {
	return len(d.Create) == 0 && len(d.Remove) == 0
}

// DiffAllocation compares the existing checkout-state credit payments with
// the target draws. A payment survives only if a draw with the same
// instrument and amount exists; every unmatched payment is removed and every
// unmatched draw becomes a creation.
func DiffAllocation(existing []*Payment, target []Draw) AllocationDiff {
	matched := make(map[uuid.UUID]bool, len(existing))
	var diff AllocationDiff

	for _, draw := range target {
		found := false
		for _, p := range existing {
			if matched[p.ID] {
				continue
			}
			if p.InstrumentID == draw.InstrumentID && p.AmountCents == draw.AmountCents {
				matched[p.ID] = true
				found = true
				break
			}
		}
		if !found {
			diff.Create = append(diff.Create, draw)
		}
	}
	for _, p := range existing {
		if !matched[p.ID] {
			diff.Remove = append(diff.Remove, p)
		}
	}
	return diff
}
