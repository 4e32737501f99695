package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
	"github.com/kailas-cloud/facility/internal/domain/event"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// UpdateAllocation sets or adds to the beneficiary's allocation and debits one
// required budget from the beneficiary. Returns the new allocated value.
func (l *Ledger) UpdateAllocation(
	ctx context.Context, caller, beneficiary common.Address, amount *uint256.Int, mode domledger.Mode,
) (*uint256.Int, error) {
	var allocated *uint256.Int
	err := l.exec(ctx, OpUpdateAllocation, func(_ context.Context, tx *txn) error {
		if err := l.requireCapability(caller, role.Operator); err != nil {
			return err
		}
		v, err := l.applyUpdate(tx, beneficiary, amount, mode)
		if err != nil {
			return err
		}
		allocated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

// applyUpdate performs the allocation and budget bookkeeping of one fulfilled update.
// No external calls happen here.
func (l *Ledger) applyUpdate(
	tx *txn, beneficiary common.Address, amount *uint256.Int, mode domledger.Mode,
) (*uint256.Int, error) {
	if beneficiary == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero beneficiary", domain.ErrInvalidArgument)
	}
	if amount == nil {
		amount = new(uint256.Int)
	}

	b := tx.budget(beneficiary)
	if l.strict {
		if err := b.Covers(&l.required); err != nil {
			return nil, fmt.Errorf("beneficiary %s: %w", beneficiary.Hex(), err)
		}
	}

	a, err := tx.allocation(beneficiary).Apply(amount, mode)
	if err != nil {
		return nil, err
	}
	debited, err := b.Debit(&l.required)
	if err != nil {
		return nil, err
	}

	tx.setAllocation(beneficiary, a)
	tx.setBudget(beneficiary, debited)
	tx.emit(event.AllocationUpdated(beneficiary, a.Allocated()))
	return a.Allocated(), nil
}
