package testaccounts

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// --- Mocks ---

type transfer struct {
	from, to common.Address
	amount   *uint256.Int
}

type mockFunder struct {
	transfers []transfer
	err       error
}

func (m *mockFunder) Send(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	if m.err != nil {
		return m.err
	}
	m.transfers = append(m.transfers, transfer{from, to, amount.Clone()})
	return nil
}

type mockRegistry struct {
	keys []string
	err  error
}

func (m *mockRegistry) PublishTestAccounts(_ context.Context, keys []string) error {
	m.keys = keys
	return m.err
}

var operator = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

// --- Tests ---

func TestGenerate_FundsAndPublishes(t *testing.T) {
	funder := &mockFunder{}
	reg := &mockRegistry{}
	svc := New(funder, reg, operator, nil, nil)

	accounts, err := svc.Generate(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 3 || len(funder.transfers) != 3 || len(reg.keys) != 3 {
		t.Fatalf("accounts=%d transfers=%d published=%d", len(accounts), len(funder.transfers), len(reg.keys))
	}

	for i, a := range accounts {
		key, err := crypto.HexToECDSA(a.PrivateKey[2:])
		if err != nil {
			t.Fatalf("account %d: invalid key: %v", i, err)
		}
		if crypto.PubkeyToAddress(key.PublicKey) != a.Address {
			t.Errorf("account %d: address does not match key", i)
		}
		tr := funder.transfers[i]
		if tr.from != operator || tr.to != a.Address || !tr.amount.Eq(DefaultFunding) {
			t.Errorf("transfer %d = %+v", i, tr)
		}
		if reg.keys[i] != a.PrivateKey {
			t.Errorf("published key %d mismatch", i)
		}
	}
	if accounts[0].Address == accounts[1].Address {
		t.Error("generated duplicate accounts")
	}
}

func TestGenerate_CustomFundingWithoutRegistry(t *testing.T) {
	funder := &mockFunder{}
	svc := New(funder, nil, operator, uint256.NewInt(42), nil)

	if _, err := svc.Generate(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if funder.transfers[0].amount.Uint64() != 42 {
		t.Errorf("funding = %s", funder.transfers[0].amount.Dec())
	}
}

func TestGenerate_FundingFailure(t *testing.T) {
	funder := &mockFunder{err: errors.New("insufficient balance")}
	reg := &mockRegistry{}
	svc := New(funder, reg, operator, nil, nil)

	if _, err := svc.Generate(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}
	if reg.keys != nil {
		t.Error("nothing may be published when funding fails")
	}
}

func TestGenerate_PublishFailureReturnsAccounts(t *testing.T) {
	reg := &mockRegistry{err: errors.New("registry down")}
	svc := New(&mockFunder{}, reg, operator, nil, nil)

	accounts, err := svc.Generate(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(accounts) != 1 {
		t.Error("funded accounts must be returned even when publishing fails")
	}
}

func TestGenerate_InvalidCount(t *testing.T) {
	svc := New(&mockFunder{}, nil, operator, nil, nil)
	if _, err := svc.Generate(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
}
