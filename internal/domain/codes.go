package domain

import "errors"

// Stable machine-readable error codes. Off-chain callers branch on these.
const (
	CodeOK                      = "ok"
	CodeUnauthorized            = "unauthorized"
	CodeNoBudget                = "no_budget"
	CodeBudgetDepleted          = "budget_depleted"
	CodeNothingAllocated        = "nothing_allocated"
	CodeNothingAvailable        = "nothing_available"
	CodeInsufficientLedgerFunds = "insufficient_ledger_funds"
	CodeArithmeticFault         = "arithmetic_fault"
	CodeTransferFailed          = "transfer_failed"
	CodeForwardFailed           = "forward_failed"
	CodeLastAdmin               = "last_admin"
	CodeActiveOperator          = "active_operator"
	CodeReentrantCall           = "reentrant_call"
	CodeInvalidArgument         = "bad_request"
	CodeNotFound                = "not_found"
	CodeInternal                = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrNoBudget, CodeNoBudget},
	{ErrBudgetDepleted, CodeBudgetDepleted},
	{ErrNothingAllocated, CodeNothingAllocated},
	{ErrNothingAvailable, CodeNothingAvailable},
	{ErrInsufficientLedgerFunds, CodeInsufficientLedgerFunds},
	{ErrArithmeticFault, CodeArithmeticFault},
	{ErrTransferFailed, CodeTransferFailed},
	{ErrForwardFailed, CodeForwardFailed},
	{ErrLastAdmin, CodeLastAdmin},
	{ErrActiveOperator, CodeActiveOperator},
	{ErrReentrantCall, CodeReentrantCall},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrNotFound, CodeNotFound},
}

// Code maps an error to its stable code. nil maps to CodeOK, unknown errors to CodeInternal.
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
