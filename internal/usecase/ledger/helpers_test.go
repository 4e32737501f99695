package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/chain/memory"
	"github.com/kailas-cloud/facility/internal/domain/event"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

var (
	ledgerAddr   = common.HexToAddress("0x8A791620dd6260079BF849Dc5567aDC3F2FdC318")
	tokenAddr    = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	adminAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	operatorAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	beneficiary  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	stranger     = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

// 30 gwei * 150k gas.
var (
	testGasPrice = uint256.NewInt(30_000_000_000)
	testGasCost  = uint256.NewInt(150_000)
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// tokens converts whole tokens to 18-decimal base units.
func tokens(whole uint64) *uint256.Int {
	unit := new(uint256.Int).Exp(u(10), u(18))
	return new(uint256.Int).Mul(u(whole), unit)
}

// --- Mocks ---

type mockPublisher struct {
	mu      sync.Mutex
	batches [][]event.Event
	err     error
}

func (m *mockPublisher) Publish(_ context.Context, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]event.Event, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return m.err
}

func (m *mockPublisher) all() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Event
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func (m *mockPublisher) last() event.Event {
	all := m.all()
	if len(all) == 0 {
		return event.Event{}
	}
	return all[len(all)-1]
}

type mockRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockRecorder) RecordOperation(op, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op+":"+code)
}

type mockStore struct {
	snapshot    domledger.Snapshot
	loadErr     error
	saveErr     error
	budgets     map[common.Address]domledger.Budget
	allocations map[common.Address]domledger.Allocation
	roles       map[common.Address]role.Set
	operator    common.Address
	seq         uint64
	metaSaves   int
}

func newMockStore() *mockStore {
	return &mockStore{
		budgets:     make(map[common.Address]domledger.Budget),
		allocations: make(map[common.Address]domledger.Allocation),
		roles:       make(map[common.Address]role.Set),
	}
}

func (m *mockStore) Load(_ context.Context) (domledger.Snapshot, error) {
	return m.snapshot, m.loadErr
}

func (m *mockStore) SaveBudget(_ context.Context, a common.Address, b domledger.Budget) error {
	m.budgets[a] = b
	return m.saveErr
}

func (m *mockStore) SaveAllocation(_ context.Context, a common.Address, al domledger.Allocation) error {
	m.allocations[a] = al
	return m.saveErr
}

func (m *mockStore) SaveRoles(_ context.Context, a common.Address, s role.Set) error {
	m.roles[a] = s
	return m.saveErr
}

func (m *mockStore) SaveMeta(_ context.Context, op common.Address, seq uint64) error {
	m.operator = op
	m.seq = seq
	m.metaSaves++
	return m.saveErr
}

// --- Fixture ---

type fixture struct {
	ledger    *Ledger
	token     *memory.Token
	bank      *memory.Bank
	publisher *mockPublisher
	recorder  *mockRecorder
}

type option func(*Config)

func permissive() option { return func(c *Config) { c.StrictBudget = false } }

func adminMayOperate() option { return func(c *Config) { c.AdminMayOperate = true } }

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	cfg := Config{
		Address:      ledgerAddr,
		Token:        tokenAddr,
		Admin:        adminAddr,
		Operator:     operatorAddr,
		GasPrice:     testGasPrice,
		GasCost:      testGasCost,
		StrictBudget: true,
	}
	for _, o := range opts {
		o(&cfg)
	}

	tok := memory.NewToken(tokenAddr)
	bank := memory.NewBank()
	pub := &mockPublisher{}
	rec := &mockRecorder{}

	l, err := New(cfg, tok.Holder(ledgerAddr), bank, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.WithPublisher(pub).WithRecorder(rec)

	return &fixture{ledger: l, token: tok, bank: bank, publisher: pub, recorder: rec}
}

func (f *fixture) required() *uint256.Int { return f.ledger.RequiredBudget() }

// fundRequester gives account native value and deposits n required budgets.
func (f *fixture) fundRequester(t *testing.T, account common.Address, n uint64) {
	t.Helper()
	value := new(uint256.Int).Mul(f.required(), u(n))
	if err := f.bank.Fund(account, value); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if err := f.ledger.RequestUpdate(context.Background(), account, value); err != nil {
		t.Fatalf("RequestUpdate: %v", err)
	}
}

func (f *fixture) fundLedger(t *testing.T, amount *uint256.Int) {
	t.Helper()
	if err := f.token.Mint(ledgerAddr, amount); err != nil {
		t.Fatalf("Mint: %v", err)
	}
}

func (f *fixture) tokenBalance(t *testing.T, account common.Address) *uint256.Int {
	t.Helper()
	v, err := f.token.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	return v
}
