package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
	"github.com/kailas-cloud/facility/internal/domain/event"
)

// RequestUpdate credits value to the caller's budget, forwards it to the operator and
// asks the operator for an allocation update. The request is accepted only if the
// caller's unused budget, this deposit included, covers one more update.
func (l *Ledger) RequestUpdate(ctx context.Context, caller common.Address, value *uint256.Int) error {
	if value == nil {
		value = new(uint256.Int)
	}
	return l.exec(ctx, OpRequestUpdate, func(ctx context.Context, tx *txn) error {
		if caller == (common.Address{}) {
			return fmt.Errorf("%w: zero caller", domain.ErrInvalidArgument)
		}

		b := tx.budget(caller)
		if !value.IsZero() {
			credited, err := b.Credit(value)
			if err != nil {
				return err
			}
			tx.setBudget(caller, credited)
			b = credited
		}

		if err := b.Covers(&l.required); err != nil {
			return err
		}

		// The forward is the last step so that a rejected request never moves value.
		if !value.IsZero() {
			if err := l.fwd.Forward(ctx, caller, l.operator, value); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrForwardFailed, err)
			}
		}

		tx.emit(event.RequestingUpdate(caller, value))
		return nil
	})
}

// Receive handles a plain value transfer into the ledger. Equivalent to RequestUpdate.
func (l *Ledger) Receive(ctx context.Context, from common.Address, value *uint256.Int) error {
	return l.RequestUpdate(ctx, from, value)
}
