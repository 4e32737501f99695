package facility

import "github.com/kailas-cloud/facility/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnauthorized            = domain.ErrUnauthorized
	ErrNoBudget                = domain.ErrNoBudget
	ErrBudgetDepleted          = domain.ErrBudgetDepleted
	ErrNothingAllocated        = domain.ErrNothingAllocated
	ErrNothingAvailable        = domain.ErrNothingAvailable
	ErrInsufficientLedgerFunds = domain.ErrInsufficientLedgerFunds
	ErrArithmeticFault         = domain.ErrArithmeticFault
	ErrTransferFailed          = domain.ErrTransferFailed
	ErrForwardFailed           = domain.ErrForwardFailed
	ErrLastAdmin               = domain.ErrLastAdmin
	ErrActiveOperator          = domain.ErrActiveOperator
	ErrReentrantCall           = domain.ErrReentrantCall
	ErrInvalidArgument         = domain.ErrInvalidArgument
)

// ErrorCode returns the stable machine-readable code of err ("ok" for nil).
func ErrorCode(err error) string { return domain.Code(err) }
