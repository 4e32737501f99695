package event

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

func TestFields_AllocationClaimed(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	e := AllocationClaimed(addr, uint256.NewInt(1500300500))
	e.Seq = 7

	f := e.Fields()
	if f["kind"] != "AllocationClaimed" {
		t.Errorf("kind = %q", f["kind"])
	}
	if f["account"] != addr.Hex() {
		t.Errorf("account = %q", f["account"])
	}
	if f["amount"] != "1500300500" {
		t.Errorf("amount = %q", f["amount"])
	}
	if f["seq"] != "7" {
		t.Errorf("seq = %q", f["seq"])
	}
	if _, ok := f["capability"]; ok {
		t.Error("capability must only be set on RoleChanged")
	}
}

func TestFields_RoleChanged(t *testing.T) {
	admin := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	op := common.HexToAddress("0x00000000000000000000000000000000000000c1")

	f := RoleChanged(op, role.Operator, false, admin).Fields()
	if f["capability"] != "OPERATOR" {
		t.Errorf("capability = %q", f["capability"])
	}
	if f["granted"] != "false" {
		t.Errorf("granted = %q", f["granted"])
	}
	if f["sender"] != admin.Hex() {
		t.Errorf("sender = %q", f["sender"])
	}
	if _, ok := f["amount"]; ok {
		t.Error("RoleChanged carries no amount")
	}
}

func TestConstructors_CopyAmount(t *testing.T) {
	v := uint256.NewInt(10)
	e := AllocationUpdated(common.Address{}, v)
	v.SetUint64(99)
	if e.Amount.Uint64() != 10 {
		t.Fatalf("event amount aliased caller value: %d", e.Amount.Uint64())
	}
}
