package ledger

import (
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
)

// Budget is the prepaid request budget of one address (immutable value object).
// sent only grows with deposits, used only grows with fulfilled updates.
type Budget struct {
	sent uint256.Int
	used uint256.Int
}

// ReconstructBudget creates a Budget without validation (storage hydration).
func ReconstructBudget(sent, used *uint256.Int) Budget {
	var b Budget
	b.sent.Set(sent)
	b.used.Set(used)
	return b
}

// Sent returns the cumulative deposited value.
func (b Budget) Sent() *uint256.Int { return b.sent.Clone() }

// Used returns the cumulative value consumed by fulfilled updates.
func (b Budget) Used() *uint256.Int { return b.used.Clone() }

// IsFunded reports whether the address ever deposited.
func (b Budget) IsFunded() bool { return !b.sent.IsZero() }

// Available returns sent-used, or zero when used exceeds sent.
func (b Budget) Available() *uint256.Int {
	if b.used.Gt(&b.sent) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&b.sent, &b.used)
}

// Covers checks that the unused budget pays for one more request of the given cost.
func (b Budget) Covers(required *uint256.Int) error {
	if !b.IsFunded() {
		return domain.ErrNoBudget
	}
	if b.Available().Lt(required) {
		return domain.ErrBudgetDepleted
	}
	return nil
}

// Credit records a deposit.
func (b Budget) Credit(value *uint256.Int) (Budget, error) {
	sent, err := Add(&b.sent, value)
	if err != nil {
		return Budget{}, err
	}
	b.sent = *sent
	return b, nil
}

// Debit records one fulfilled request of the given cost.
func (b Budget) Debit(cost *uint256.Int) (Budget, error) {
	used, err := Add(&b.used, cost)
	if err != nil {
		return Budget{}, err
	}
	b.used = *used
	return b, nil
}

// Requests returns how many requests of the given cost the unused budget still pays for.
func (b Budget) Requests(cost *uint256.Int) *uint256.Int {
	if cost.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(b.Available(), cost)
}
