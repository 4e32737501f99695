package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CodeOK},
		{ErrNoBudget, CodeNoBudget},
		{fmt.Errorf("beneficiary 0x1: %w", ErrBudgetDepleted), CodeBudgetDepleted},
		{ErrNothingAllocated, CodeNothingAllocated},
		{ErrNothingAvailable, CodeNothingAvailable},
		{fmt.Errorf("%w: balance 1 < 2", ErrInsufficientLedgerFunds), CodeInsufficientLedgerFunds},
		{NewUnauthorized(common.Address{}, role.Operator), CodeUnauthorized},
		{fmt.Errorf("%w: boom", ErrTransferFailed), CodeTransferFailed},
		{ErrActiveOperator, CodeActiveOperator},
		{errors.New("connection refused"), CodeInternal},
	}
	for _, tc := range tests {
		if got := Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUnauthorizedError(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	err := NewUnauthorized(addr, role.Operator)

	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("expected errors.Is(err, ErrUnauthorized)")
	}
	var ue *UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatal("expected *UnauthorizedError")
	}
	if ue.Capability != role.Operator {
		t.Errorf("capability = %v", ue.Capability)
	}
	want := "unauthorized: account " + addr.Hex() + " is missing role OPERATOR"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range codes {
		msg := c.err.Error()
		if seen[msg] {
			t.Errorf("duplicate error message %q", msg)
		}
		seen[msg] = true
	}
}
