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

// ClaimAllocation pays the caller's whole outstanding allocation out of the ledger's
// token balance. Returns the amount paid.
func (l *Ledger) ClaimAllocation(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	var paid *uint256.Int
	err := l.exec(ctx, OpClaimAllocation, func(ctx context.Context, tx *txn) error {
		v, err := l.claim(ctx, tx, caller)
		if err != nil {
			return err
		}
		paid = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// UpdateAndClaimAllocation updates the beneficiary's allocation and pays it out in one
// atomic step. Returns the amount paid.
func (l *Ledger) UpdateAndClaimAllocation(
	ctx context.Context, caller, beneficiary common.Address, amount *uint256.Int, mode domledger.Mode,
) (*uint256.Int, error) {
	var paid *uint256.Int
	err := l.exec(ctx, OpUpdateAndClaim, func(ctx context.Context, tx *txn) error {
		if err := l.requireCapability(caller, role.Operator); err != nil {
			return err
		}
		if _, err := l.applyUpdate(tx, beneficiary, amount, mode); err != nil {
			return err
		}
		v, err := l.claim(ctx, tx, beneficiary)
		if err != nil {
			return err
		}
		paid = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// claim settles the beneficiary's allocation before calling the token, so a
// re-entrant observer already sees it zeroed. A failed transfer is undone by the
// caller's rollback.
func (l *Ledger) claim(ctx context.Context, tx *txn, beneficiary common.Address) (*uint256.Int, error) {
	current := tx.allocation(beneficiary)
	if err := current.Claimable(); err != nil {
		return nil, err
	}

	balance, err := l.tok.BalanceOf(ctx, l.address)
	if err != nil {
		return nil, fmt.Errorf("token balance of ledger: %w", err)
	}
	if balance.Lt(current.Allocated()) {
		return nil, fmt.Errorf("%w: balance %s, allocated %s",
			domain.ErrInsufficientLedgerFunds, balance.Dec(), current.Allocated().Dec())
	}

	settled, amount, err := current.Claim()
	if err != nil {
		return nil, err
	}
	tx.setAllocation(beneficiary, settled)

	if err := l.tok.Transfer(ctx, beneficiary, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	tx.emit(event.AllocationClaimed(beneficiary, amount))
	return amount, nil
}

// Claimable reports the amount account could claim now, or why it cannot.
func (l *Ledger) Claimable(ctx context.Context, account common.Address) (*uint256.Int, error) {
	a := l.Allocation(ctx, account)
	if err := a.Claimable(); err != nil {
		return new(uint256.Int), err
	}
	return a.Allocated(), nil
}
