package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Ledger failure reasons. Messages are part of the public contract: off-chain
// callers branch on them, so they must stay stable.
var (
	// ErrUnauthorized signals a caller without the required capability.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoBudget signals a requester that never deposited.
	ErrNoBudget = errors.New("no budget")
	// ErrBudgetDepleted signals a funded requester whose unused budget is below the required budget.
	ErrBudgetDepleted = errors.New("budget depleted")
	// ErrNothingAllocated signals a claim by an address that was never allocated tokens.
	ErrNothingAllocated = errors.New("nothing allocated")
	// ErrNothingAvailable signals a claim on an allocation that was already paid out.
	ErrNothingAvailable = errors.New("nothing available")
	// ErrInsufficientLedgerFunds signals that the ledger token balance cannot cover a claim.
	ErrInsufficientLedgerFunds = errors.New("insufficient ledger funds")
	// ErrArithmeticFault signals a counter overflow or underflow.
	ErrArithmeticFault = errors.New("arithmetic fault")

	// ErrTransferFailed signals a rejected token transfer during a claim.
	ErrTransferFailed = errors.New("token transfer failed")
	// ErrForwardFailed signals a rejected forward of a deposit to the operator.
	ErrForwardFailed = errors.New("deposit forward failed")
	// ErrLastAdmin signals an attempt to revoke the only remaining ADMIN.
	ErrLastAdmin = errors.New("cannot revoke last admin")
	// ErrActiveOperator signals an attempt to revoke OPERATOR from the deposit forwarding target.
	ErrActiveOperator = errors.New("cannot revoke active operator, transfer it instead")
	// ErrReentrantCall signals a mutating call made from inside an in-flight ledger operation.
	ErrReentrantCall = errors.New("reentrant call")
	// ErrInvalidArgument signals malformed input (zero address, unknown capability).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing registry entry.
	ErrNotFound = errors.New("not found")
)

// UnauthorizedError wraps ErrUnauthorized with the account and the capability it lacks.
type UnauthorizedError struct {
	Account    common.Address
	Capability role.Capability
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: account %s is missing role %s", ErrUnauthorized.Error(), e.Account.Hex(), e.Capability)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// NewUnauthorized creates an authorization error for the given account and capability.
func NewUnauthorized(account common.Address, capability role.Capability) error {
	return &UnauthorizedError{Account: account, Capability: capability}
}
