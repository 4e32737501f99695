package ledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func maxUint256() *uint256.Int { return new(uint256.Int).SetAllOne() }

func TestBudget_Covers(t *testing.T) {
	required := u(100)

	var empty Budget
	if err := empty.Covers(required); !errors.Is(err, domain.ErrNoBudget) {
		t.Fatalf("never funded: expected ErrNoBudget, got %v", err)
	}

	low, err := empty.Credit(u(1))
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := low.Covers(required); !errors.Is(err, domain.ErrBudgetDepleted) {
		t.Fatalf("under-funded: expected ErrBudgetDepleted, got %v", err)
	}

	funded, err := low.Credit(u(99))
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := funded.Covers(required); err != nil {
		t.Fatalf("funded: unexpected error %v", err)
	}

	spent, err := funded.Debit(required)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if err := spent.Covers(required); !errors.Is(err, domain.ErrBudgetDepleted) {
		t.Fatalf("spent: expected ErrBudgetDepleted, got %v", err)
	}
}

func TestBudget_ImmutableValue(t *testing.T) {
	b := ReconstructBudget(u(10), u(2))
	next, err := b.Credit(u(5))
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if b.Sent().Uint64() != 10 {
		t.Errorf("original mutated: sent = %d", b.Sent().Uint64())
	}
	if next.Sent().Uint64() != 15 {
		t.Errorf("next sent = %d, want 15", next.Sent().Uint64())
	}

	s := b.Sent()
	s.SetUint64(999)
	if b.Sent().Uint64() != 10 {
		t.Error("accessor leaked internal state")
	}
}

func TestBudget_AvailableSaturates(t *testing.T) {
	b := ReconstructBudget(u(5), u(20))
	if !b.Available().IsZero() {
		t.Errorf("Available() = %s, want 0", b.Available().Dec())
	}
}

func TestBudget_Requests(t *testing.T) {
	b := ReconstructBudget(u(1050), u(50))
	if got := b.Requests(u(100)).Uint64(); got != 10 {
		t.Errorf("Requests() = %d, want 10", got)
	}
	if !b.Requests(u(0)).IsZero() {
		t.Error("zero cost should report zero requests")
	}
}

func TestBudget_Overflow(t *testing.T) {
	b := ReconstructBudget(maxUint256(), maxUint256())
	if _, err := b.Credit(u(1)); !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("Credit overflow: expected ErrArithmeticFault, got %v", err)
	}
	if _, err := b.Debit(u(1)); !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("Debit overflow: expected ErrArithmeticFault, got %v", err)
	}
}

func TestAllocation_Apply(t *testing.T) {
	var a Allocation
	a, err := a.Apply(u(100), Additive)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	a, err = a.Apply(u(50), Additive)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a.Allocated().Uint64() != 150 {
		t.Fatalf("additive: allocated = %d, want 150", a.Allocated().Uint64())
	}

	a, err = a.Apply(u(7), Absolute)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a.Allocated().Uint64() != 7 {
		t.Fatalf("absolute: allocated = %d, want 7", a.Allocated().Uint64())
	}
}

func TestAllocation_ApplyOverflow(t *testing.T) {
	a := ReconstructAllocation(maxUint256(), u(0))
	if _, err := a.Apply(u(1), Additive); !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("expected ErrArithmeticFault, got %v", err)
	}
	if _, err := a.Apply(u(1), Absolute); err != nil {
		t.Fatalf("absolute set never overflows: %v", err)
	}
}

func TestAllocation_ClaimLifecycle(t *testing.T) {
	var a Allocation
	if err := a.Claimable(); !errors.Is(err, domain.ErrNothingAllocated) {
		t.Fatalf("fresh: expected ErrNothingAllocated, got %v", err)
	}

	a, _ = a.Apply(u(42), Additive)
	settled, amount, err := a.Claim()
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if amount.Uint64() != 42 {
		t.Errorf("amount = %d, want 42", amount.Uint64())
	}
	if !settled.Allocated().IsZero() {
		t.Error("allocation not zeroed")
	}
	if settled.Claimed().Uint64() != 42 {
		t.Errorf("claimed = %d, want 42", settled.Claimed().Uint64())
	}

	if _, _, err := settled.Claim(); !errors.Is(err, domain.ErrNothingAvailable) {
		t.Fatalf("second claim: expected ErrNothingAvailable, got %v", err)
	}
	if a.Allocated().Uint64() != 42 {
		t.Error("Claim mutated the receiver")
	}
}

func TestModeOf(t *testing.T) {
	if ModeOf(true) != Absolute || ModeOf(false) != Additive {
		t.Fatal("ModeOf mapping broken")
	}
	var zero Mode
	if zero != Additive {
		t.Fatal("zero mode must be additive")
	}
	if Absolute.String() != "absolute" || Additive.String() != "additive" {
		t.Fatal("unexpected mode names")
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1500300500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Uint64() != 1500300500 {
		t.Errorf("got %s", v.Dec())
	}

	for _, bad := range []string{"", "-1", "abc", "1.5"} {
		if _, err := ParseAmount(bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("ParseAmount(%q): expected ErrInvalidArgument, got %v", bad, err)
		}
	}
}

func TestMul_Overflow(t *testing.T) {
	if _, err := Mul(maxUint256(), u(2)); !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("expected ErrArithmeticFault, got %v", err)
	}
	got, err := Mul(u(20_000_000_000), u(150_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 3_000_000_000_000_000 {
		t.Errorf("got %s", got.Dec())
	}
}

func TestSub_Underflow(t *testing.T) {
	if _, err := Sub(u(1), u(2)); !errors.Is(err, domain.ErrArithmeticFault) {
		t.Fatalf("expected ErrArithmeticFault, got %v", err)
	}
}
