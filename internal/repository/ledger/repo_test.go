package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func TestSaveBudget_KeyAndFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	var gotFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		gotKey, gotFields = key, fields
		return nil
	}

	b := domledger.ReconstructBudget(uint256.NewInt(4_500_000_000_000_000), uint256.NewInt(0))
	if err := repo.SaveBudget(context.Background(), bob, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "facility:budget:"+bob.Hex() {
		t.Errorf("key = %s", gotKey)
	}
	if gotFields["sent"] != "4500000000000000" || gotFields["used"] != "0" || gotFields["account"] != bob.Hex() {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestSave_WrapsStoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	storeErr := errors.New("connection lost")
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error { return storeErr }
	ctx := context.Background()

	errs := []error{
		repo.SaveBudget(ctx, bob, domledger.Budget{}),
		repo.SaveAllocation(ctx, bob, domledger.Allocation{}),
		repo.SaveRoles(ctx, bob, role.NewSet(role.Operator)),
		repo.SaveMeta(ctx, alice, 1),
	}
	for i, err := range errs {
		if !errors.Is(err, storeErr) {
			t.Errorf("save #%d: expected wrapped store error, got %v", i, err)
		}
	}
}

func TestLoad_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.IsEmpty() {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestSaveThenLoad(t *testing.T) {
	repo, ms := newTestRepo(t)
	backend := hashBackend{}
	backend.wire(ms)
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	must(repo.SaveBudget(ctx, bob, domledger.ReconstructBudget(uint256.NewInt(10), uint256.NewInt(4))))
	must(repo.SaveAllocation(ctx, bob, domledger.ReconstructAllocation(uint256.NewInt(77), uint256.NewInt(3))))
	must(repo.SaveRoles(ctx, alice, role.NewSet(role.Admin, role.Operator)))
	must(repo.SaveRoles(ctx, bob, 0))
	must(repo.SaveMeta(ctx, alice, 12))

	snap, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Operator != alice || snap.Seq != 12 {
		t.Errorf("meta = %s/%d", snap.Operator.Hex(), snap.Seq)
	}
	b := snap.Budgets[bob]
	if b.Sent().Uint64() != 10 || b.Used().Uint64() != 4 {
		t.Errorf("budget = %s/%s", b.Sent().Dec(), b.Used().Dec())
	}
	a := snap.Allocations[bob]
	if a.Allocated().Uint64() != 77 || a.Claimed().Uint64() != 3 {
		t.Errorf("allocation = %s/%s", a.Allocated().Dec(), a.Claimed().Dec())
	}
	if snap.Roles[alice] != role.NewSet(role.Admin, role.Operator) {
		t.Errorf("roles = %v", snap.Roles[alice])
	}
	if _, ok := snap.Roles[bob]; ok {
		t.Error("revoked holder must not appear in loaded roles")
	}
}

func TestLoad_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("timeout")
	}

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_CorruptEntry(t *testing.T) {
	repo, ms := newTestRepo(t)
	backend := hashBackend{
		"facility:budget:" + bob.Hex(): {"account": bob.Hex(), "sent": "ten", "used": "0"},
	}
	backend.wire(ms)

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected parse error for corrupt amount")
	}
}

func TestLoad_SkipsVanishedKeys(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern == "facility:allocation:*" {
			return []string{"facility:allocation:gone"}, nil
		}
		return nil, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return make([]map[string]string, len(keys)), nil
	}

	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Allocations) != 0 {
		t.Errorf("expected no allocations, got %d", len(snap.Allocations))
	}
}

func TestMetaFromHash_InvalidOperator(t *testing.T) {
	if _, _, err := metaFromHash(map[string]string{"operator": "nope"}); err == nil {
		t.Fatal("expected error")
	}
}
