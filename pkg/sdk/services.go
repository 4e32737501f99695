package facility

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ledgeruc "github.com/kailas-cloud/facility/internal/usecase/ledger"
)

// BudgetService manages prepaid request budgets.
type BudgetService struct {
	ledger *ledgeruc.Ledger
	obs    *observer
}

// Deposit moves value from caller to the operator, credits it to the caller's
// budget and files an update request.
func (s *BudgetService) Deposit(ctx context.Context, caller common.Address, value *uint256.Int) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("budget.deposit", start, err) }()

	if err = s.ledger.RequestUpdate(ctx, caller, value); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

// Get returns the budget of an account (all zero if it never deposited).
func (s *BudgetService) Get(ctx context.Context, account common.Address) Budget {
	return fromInternalBudget(account, s.ledger.Budget(ctx, account))
}

// AllocationService manages allocations and claims.
type AllocationService struct {
	ledger *ledgeruc.Ledger
	obs    *observer
}

// Update changes the beneficiary's allocation and debits one required budget.
// Returns the new outstanding allocation.
func (s *AllocationService) Update(
	ctx context.Context, caller, beneficiary common.Address, amount *uint256.Int, mode Mode,
) (_ *uint256.Int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("allocation.update", start, err) }()

	v, err := s.ledger.UpdateAllocation(ctx, caller, beneficiary, amount, mode)
	if err != nil {
		return nil, fmt.Errorf("update allocation: %w", err)
	}
	return v, nil
}

// Claim pays the caller's whole outstanding allocation. Returns the amount paid.
func (s *AllocationService) Claim(ctx context.Context, caller common.Address) (_ *uint256.Int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("allocation.claim", start, err) }()

	v, err := s.ledger.ClaimAllocation(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("claim allocation: %w", err)
	}
	return v, nil
}

// UpdateAndClaim updates and pays out the beneficiary's allocation atomically.
func (s *AllocationService) UpdateAndClaim(
	ctx context.Context, caller, beneficiary common.Address, amount *uint256.Int, mode Mode,
) (_ *uint256.Int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("allocation.update_and_claim", start, err) }()

	v, err := s.ledger.UpdateAndClaimAllocation(ctx, caller, beneficiary, amount, mode)
	if err != nil {
		return nil, fmt.Errorf("update and claim allocation: %w", err)
	}
	return v, nil
}

// Get returns the allocation of an account.
func (s *AllocationService) Get(ctx context.Context, account common.Address) Allocation {
	return fromInternalAllocation(account, s.ledger.Allocation(ctx, account))
}

// RoleService manages capabilities.
type RoleService struct {
	ledger *ledgeruc.Ledger
	obs    *observer
}

// Grant gives account a capability. Caller must hold ADMIN.
func (s *RoleService) Grant(ctx context.Context, caller, account common.Address, c Capability) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("role.grant", start, err) }()

	if err = s.ledger.GrantRole(ctx, caller, account, c); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// Revoke removes a capability from account. Caller must hold ADMIN.
func (s *RoleService) Revoke(ctx context.Context, caller, account common.Address, c Capability) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("role.revoke", start, err) }()

	if err = s.ledger.RevokeRole(ctx, caller, account, c); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

// TransferOperator hands OPERATOR and the deposit forwarding address to account.
func (s *RoleService) TransferOperator(ctx context.Context, caller, account common.Address) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("role.transfer_operator", start, err) }()

	if err = s.ledger.TransferOperator(ctx, caller, account); err != nil {
		return fmt.Errorf("transfer operator: %w", err)
	}
	return nil
}

// Has reports whether account holds the capability.
func (s *RoleService) Has(ctx context.Context, account common.Address, c Capability) bool {
	return s.ledger.HasRole(ctx, account, c)
}
