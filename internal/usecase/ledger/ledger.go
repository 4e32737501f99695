package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/domain"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Operation names used for metrics and logs.
const (
	OpRequestUpdate    = "request_update"
	OpUpdateAllocation = "update_allocation"
	OpClaimAllocation  = "claim_allocation"
	OpUpdateAndClaim   = "update_and_claim_allocation"
	OpGrantRole        = "grant_role"
	OpRevokeRole       = "revoke_role"
	OpTransferOperator = "transfer_operator"
)

const defaultPersistTimeout = 2 * time.Second

// Config holds the deployment-time parameters of a ledger.
type Config struct {
	// Address is the ledger's own account, the holder of the token balance it pays claims from.
	Address common.Address
	// Token is the address of the external token contract.
	Token common.Address
	// Admin receives ADMIN. Operator receives OPERATOR and forwarded deposits.
	Admin    common.Address
	Operator common.Address
	// Roles grants additional capabilities.
	Roles map[common.Address]role.Set
	// GasPrice times GasCost is the budget debited per fulfilled update.
	GasPrice *uint256.Int
	GasCost  *uint256.Int
	// StrictBudget rejects updates for beneficiaries whose unused budget cannot pay for them.
	// When false the debit is unconditional and used may exceed sent.
	StrictBudget bool
	// AdminMayOperate lets ADMIN satisfy OPERATOR checks.
	AdminMayOperate bool
}

// Ledger is the allocation ledger: budgets, allocations, roles and claims of one deployment.
// All mutating operations are serialized and either commit fully or leave no trace.
type Ledger struct {
	mu sync.Mutex

	address         common.Address
	token           common.Address
	operator        common.Address
	required        uint256.Int
	strict          bool
	adminMayOperate bool

	budgets     map[common.Address]domledger.Budget
	allocations map[common.Address]domledger.Allocation
	roles       map[common.Address]role.Set
	seq         uint64
	restored    bool

	tok       Token
	fwd       ValueForwarder
	publisher EventPublisher
	store     StateStore
	recorder  Recorder
	logger    *zap.Logger

	persistTimeout time.Duration
}

// New creates a ledger with empty budgets and allocations.
func New(cfg Config, tok Token, fwd ValueForwarder, logger *zap.Logger) (*Ledger, error) {
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: ledger address is required", domain.ErrInvalidArgument)
	}
	if cfg.Operator == (common.Address{}) {
		return nil, fmt.Errorf("%w: operator address is required", domain.ErrInvalidArgument)
	}
	if cfg.GasPrice == nil || cfg.GasCost == nil {
		return nil, fmt.Errorf("%w: gas price and gas cost are required", domain.ErrInvalidArgument)
	}
	if tok == nil || fwd == nil {
		return nil, fmt.Errorf("%w: token and value forwarder are required", domain.ErrInvalidArgument)
	}
	required, err := domledger.Mul(cfg.GasPrice, cfg.GasCost)
	if err != nil {
		return nil, fmt.Errorf("required budget: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		address:         cfg.Address,
		token:           cfg.Token,
		operator:        cfg.Operator,
		required:        *required,
		strict:          cfg.StrictBudget,
		adminMayOperate: cfg.AdminMayOperate,
		budgets:         make(map[common.Address]domledger.Budget),
		allocations:     make(map[common.Address]domledger.Allocation),
		roles:           initialRoles(cfg),
		tok:             tok,
		fwd:             fwd,
		logger:          logger,
		persistTimeout:  defaultPersistTimeout,
	}
	if l.adminCount() == 0 {
		return nil, fmt.Errorf("%w: at least one ADMIN is required", domain.ErrInvalidArgument)
	}
	return l, nil
}

func initialRoles(cfg Config) map[common.Address]role.Set {
	roles := make(map[common.Address]role.Set, len(cfg.Roles)+2)
	for addr, set := range cfg.Roles {
		if addr != (common.Address{}) && !set.IsEmpty() {
			roles[addr] = set
		}
	}
	if cfg.Admin != (common.Address{}) {
		roles[cfg.Admin] = roles[cfg.Admin].With(role.Admin)
	}
	roles[cfg.Operator] = roles[cfg.Operator].With(role.Operator)
	return roles
}

// WithPublisher attaches an event publisher.
func (l *Ledger) WithPublisher(p EventPublisher) *Ledger {
	l.publisher = p
	return l
}

// WithRecorder attaches an operation outcome recorder.
func (l *Ledger) WithRecorder(r Recorder) *Ledger {
	l.recorder = r
	return l
}

// WithStore attaches a persistence store. Persisted state replaces the configured
// initial state; an empty store is seeded with it.
func (l *Ledger) WithStore(ctx context.Context, store StateStore) (*Ledger, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.store = store
	if snap.IsEmpty() {
		for addr, set := range l.roles {
			if err := store.SaveRoles(ctx, addr, set); err != nil {
				return nil, fmt.Errorf("seed roles: %w", err)
			}
		}
		if err := store.SaveMeta(ctx, l.operator, l.seq); err != nil {
			return nil, fmt.Errorf("seed meta: %w", err)
		}
		l.logger.Info("Ledger state seeded", zap.Int("role_holders", len(l.roles)))
		return l, nil
	}

	if snap.Operator != (common.Address{}) {
		l.operator = snap.Operator
	}
	l.seq = snap.Seq
	if snap.Budgets != nil {
		l.budgets = snap.Budgets
	}
	if snap.Allocations != nil {
		l.allocations = snap.Allocations
	}
	if len(snap.Roles) > 0 {
		l.roles = snap.Roles
	}
	l.restored = true
	l.logger.Info("Ledger state loaded",
		zap.String("operator", l.operator.Hex()),
		zap.Uint64("seq", l.seq),
		zap.Int("budgets", len(l.budgets)),
		zap.Int("allocations", len(l.allocations)),
		zap.Int("role_holders", len(l.roles)),
	)
	return l, nil
}

// Restored reports whether WithStore loaded existing state instead of seeding it.
func (l *Ledger) Restored() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restored
}

// Address returns the ledger's own account.
func (l *Ledger) Address() common.Address { return l.address }

// TokenAddress returns the token reference set at construction.
func (l *Ledger) TokenAddress() common.Address { return l.token }

// RequiredBudget returns the budget debited per fulfilled update.
func (l *Ledger) RequiredBudget() *uint256.Int { return l.required.Clone() }

// StrictBudget reports whether updates require the beneficiary to hold unused budget.
func (l *Ledger) StrictBudget() bool { return l.strict }

// Operator returns the account receiving forwarded deposits.
func (l *Ledger) Operator(ctx context.Context) common.Address {
	defer l.read(ctx)()
	return l.operator
}

// Budget returns the budget entry of account (zero value if it never deposited).
func (l *Ledger) Budget(ctx context.Context, account common.Address) domledger.Budget {
	defer l.read(ctx)()
	return l.budgets[account]
}

// Allocation returns the allocation entry of account (zero value if never allocated).
func (l *Ledger) Allocation(ctx context.Context, account common.Address) domledger.Allocation {
	defer l.read(ctx)()
	return l.allocations[account]
}

// Roles returns the capability set of account.
func (l *Ledger) Roles(ctx context.Context, account common.Address) role.Set {
	defer l.read(ctx)()
	return l.roles[account]
}

// HasRole reports whether account holds capability.
func (l *Ledger) HasRole(ctx context.Context, account common.Address, capability role.Capability) bool {
	return l.Roles(ctx, account).Has(capability)
}

// Seq returns the sequence number of the last emitted event.
func (l *Ledger) Seq(ctx context.Context) uint64 {
	defer l.read(ctx)()
	return l.seq
}

// read locks the ledger for a read unless ctx belongs to an operation that already
// holds the lock, in which case the in-progress state is observed. Returns the unlock func.
func (l *Ledger) read(ctx context.Context) func() {
	if l.inFlight(ctx) {
		return func() {}
	}
	l.mu.Lock()
	return l.mu.Unlock
}

func (l *Ledger) adminCount() int {
	n := 0
	for _, set := range l.roles {
		if set.Has(role.Admin) {
			n++
		}
	}
	return n
}
