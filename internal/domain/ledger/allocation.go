package ledger

import (
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
)

// Mode selects how an allocation update combines with the current value.
type Mode uint8

const (
	// Additive adds the amount to the outstanding allocation (default).
	Additive Mode = iota
	// Absolute replaces the outstanding allocation, used for corrective adjustments.
	Absolute
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Absolute {
		return "absolute"
	}
	return "additive"
}

// ModeOf maps the absolute flag to a Mode.
func ModeOf(absolute bool) Mode {
	if absolute {
		return Absolute
	}
	return Additive
}

// Allocation is the claimable token amount of one beneficiary (immutable value object).
type Allocation struct {
	allocated uint256.Int
	claimed   uint256.Int
}

// ReconstructAllocation creates an Allocation without validation (storage hydration).
func ReconstructAllocation(allocated, claimed *uint256.Int) Allocation {
	var a Allocation
	a.allocated.Set(allocated)
	a.claimed.Set(claimed)
	return a
}

// Allocated returns the currently claimable amount.
func (a Allocation) Allocated() *uint256.Int { return a.allocated.Clone() }

// Claimed returns the cumulative amount paid out.
func (a Allocation) Claimed() *uint256.Int { return a.claimed.Clone() }

// Apply returns the allocation after an update of the given mode.
func (a Allocation) Apply(amount *uint256.Int, mode Mode) (Allocation, error) {
	if mode == Absolute {
		a.allocated.Set(amount)
		return a, nil
	}
	next, err := Add(&a.allocated, amount)
	if err != nil {
		return Allocation{}, err
	}
	a.allocated = *next
	return a, nil
}

// Claimable returns nil when something can be claimed, otherwise the reason it cannot:
// ErrNothingAvailable once a payout happened, ErrNothingAllocated before.
func (a Allocation) Claimable() error {
	if !a.allocated.IsZero() {
		return nil
	}
	if !a.claimed.IsZero() {
		return domain.ErrNothingAvailable
	}
	return domain.ErrNothingAllocated
}

// Claim zeroes the allocation and moves it into the claimed total.
// Returns the settled allocation and the amount to pay out.
func (a Allocation) Claim() (Allocation, *uint256.Int, error) {
	if err := a.Claimable(); err != nil {
		return Allocation{}, nil, err
	}
	amount := a.allocated.Clone()
	claimed, err := Add(&a.claimed, amount)
	if err != nil {
		return Allocation{}, nil, err
	}
	a.allocated.Clear()
	a.claimed = *claimed
	return a, amount, nil
}
