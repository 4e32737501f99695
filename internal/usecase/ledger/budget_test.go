package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
	"github.com/kailas-cloud/facility/internal/domain/event"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
)

func TestRequestUpdate_DepositScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.bank.Fund(beneficiary, tokens(1))

	// 0 value: never funded.
	err := f.ledger.RequestUpdate(ctx, beneficiary, u(0))
	if !errors.Is(err, domain.ErrNoBudget) {
		t.Fatalf("zero deposit: expected ErrNoBudget, got %v", err)
	}

	// 1 unit: funded but below the required budget.
	err = f.ledger.RequestUpdate(ctx, beneficiary, u(1))
	if !errors.Is(err, domain.ErrBudgetDepleted) {
		t.Fatalf("1 unit: expected ErrBudgetDepleted, got %v", err)
	}
	if !f.bank.BalanceOf(operatorAddr).IsZero() {
		t.Fatal("rejected request must not move value to the operator")
	}
	if f.ledger.Budget(ctx, beneficiary).IsFunded() {
		t.Fatal("rejected request must not credit the budget")
	}

	// Required budget: accepted and forwarded.
	before := f.bank.BalanceOf(beneficiary)
	if err := f.ledger.RequestUpdate(ctx, beneficiary, f.required()); err != nil {
		t.Fatalf("required deposit: unexpected error %v", err)
	}
	if !f.bank.BalanceOf(operatorAddr).Eq(f.required()) {
		t.Errorf("operator balance = %s, want %s", f.bank.BalanceOf(operatorAddr).Dec(), f.required().Dec())
	}
	spent := new(uint256.Int).Sub(before, f.bank.BalanceOf(beneficiary))
	if !spent.Eq(f.required()) {
		t.Errorf("requester spent %s, want %s", spent.Dec(), f.required().Dec())
	}
	if !f.bank.BalanceOf(ledgerAddr).IsZero() {
		t.Error("ledger must not retain deposited value")
	}

	last := f.publisher.last()
	if last.Kind != event.KindRequestingUpdate || last.Account != beneficiary {
		t.Errorf("last event = %+v, want RequestingUpdate(%s)", last, beneficiary.Hex())
	}
	if !last.Amount.Eq(f.required()) {
		t.Errorf("event amount = %s", last.Amount.Dec())
	}
}

func TestRequestUpdate_ErrorMessagesAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.bank.Fund(beneficiary, u(1))

	noBudget := f.ledger.RequestUpdate(ctx, beneficiary, nil)
	depleted := f.ledger.RequestUpdate(ctx, beneficiary, u(1))
	if noBudget == nil || depleted == nil {
		t.Fatal("expected two failures")
	}
	if noBudget.Error() == depleted.Error() {
		t.Fatalf("NoBudget and BudgetDepleted must differ, both %q", noBudget.Error())
	}
	if noBudget.Error() != "no budget" || depleted.Error() != "budget depleted" {
		t.Errorf("unexpected messages %q / %q", noBudget.Error(), depleted.Error())
	}
}

func TestReceive_EquivalentToRequestUpdate(t *testing.T) {
	viaRequest := newFixture(t)
	viaReceive := newFixture(t)
	ctx := context.Background()

	for _, f := range []*fixture{viaRequest, viaReceive} {
		_ = f.bank.Fund(beneficiary, tokens(1))
	}

	errA := viaRequest.ledger.RequestUpdate(ctx, beneficiary, viaRequest.required())
	errB := viaReceive.ledger.Receive(ctx, beneficiary, viaReceive.required())
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v / %v", errA, errB)
	}

	a := viaRequest.ledger.Budget(ctx, beneficiary)
	b := viaReceive.ledger.Budget(ctx, beneficiary)
	if !a.Sent().Eq(b.Sent()) || !a.Used().Eq(b.Used()) {
		t.Errorf("budgets differ: %s/%s vs %s/%s", a.Sent().Dec(), a.Used().Dec(), b.Sent().Dec(), b.Used().Dec())
	}
	if !viaRequest.bank.BalanceOf(operatorAddr).Eq(viaReceive.bank.BalanceOf(operatorAddr)) {
		t.Error("operator balances differ")
	}
	if viaReceive.publisher.last().Kind != event.KindRequestingUpdate {
		t.Error("Receive must emit RequestingUpdate")
	}

	if err := viaReceive.ledger.Receive(ctx, stranger, nil); !errors.Is(err, domain.ErrNoBudget) {
		t.Errorf("Receive of zero value: expected ErrNoBudget, got %v", err)
	}
}

func TestRequestUpdate_ExistingBudgetWithoutDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fundRequester(t, beneficiary, 2)

	// Remaining budget covers a follow-up request without new value.
	if err := f.ledger.RequestUpdate(ctx, beneficiary, nil); err != nil {
		t.Fatalf("follow-up request: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.ledger.UpdateAllocation(ctx, operatorAddr, beneficiary, u(1), domledger.Additive); err != nil {
			t.Fatalf("UpdateAllocation #%d: %v", i, err)
		}
	}

	if err := f.ledger.RequestUpdate(ctx, beneficiary, nil); !errors.Is(err, domain.ErrBudgetDepleted) {
		t.Fatalf("after consuming budget: expected ErrBudgetDepleted, got %v", err)
	}
}

func TestRequestUpdate_ForwardFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The requester holds no native value, so the forward fails.
	err := f.ledger.RequestUpdate(ctx, beneficiary, f.required())
	if !errors.Is(err, domain.ErrForwardFailed) {
		t.Fatalf("expected ErrForwardFailed, got %v", err)
	}
	if f.ledger.Budget(ctx, beneficiary).IsFunded() {
		t.Fatal("failed forward must roll back the credit")
	}
	if len(f.publisher.all()) != 0 {
		t.Fatal("failed request must not emit events")
	}
}

func TestRequestUpdate_ForwardsToCurrentOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	next := stranger

	if err := f.ledger.TransferOperator(ctx, adminAddr, next); err != nil {
		t.Fatalf("TransferOperator: %v", err)
	}
	f.fundRequester(t, beneficiary, 1)

	if !f.bank.BalanceOf(next).Eq(f.required()) {
		t.Errorf("new operator balance = %s", f.bank.BalanceOf(next).Dec())
	}
	if !f.bank.BalanceOf(operatorAddr).IsZero() {
		t.Error("previous operator must not receive deposits")
	}
}

func TestRequestUpdate_ZeroCaller(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.RequestUpdate(context.Background(), common.Address{}, u(1))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRequestUpdate_CreditOverflow(t *testing.T) {
	f := newFixture(t, permissive())
	ctx := context.Background()
	max := new(uint256.Int).SetAllOne()
	_ = f.bank.Fund(beneficiary, max)

	if err := f.ledger.RequestUpdate(ctx, beneficiary, max); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	err := f.ledger.RequestUpdate(ctx, beneficiary, u(1))
	if !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("expected ErrArithmeticFault, got %v", err)
	}
	if !f.ledger.Budget(ctx, beneficiary).Sent().Eq(max) {
		t.Error("overflowing deposit must leave the budget unchanged")
	}
}
