package facility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/chain/memory"
	"github.com/kailas-cloud/facility/internal/db"
	dbRedis "github.com/kailas-cloud/facility/internal/db/redis"
	eventsrepo "github.com/kailas-cloud/facility/internal/repository/events"
	ledgerrepo "github.com/kailas-cloud/facility/internal/repository/ledger"
	healthuc "github.com/kailas-cloud/facility/internal/usecase/health"
	ledgeruc "github.com/kailas-cloud/facility/internal/usecase/ledger"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the facility SDK entry point: one embedded ledger with its token and
// native value balances.
type Client struct {
	store     db.Store
	ledger    *ledgeruc.Ledger
	token     *memory.Token
	bank      *memory.Bank
	healthSvc *healthuc.Service
	obs       *observer
}

// New creates a Client. With WithRedis it connects to the database and resumes
// from persisted state; the provided context is used for the readiness check and the load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.operator == (common.Address{}) {
		return nil, errors.New("facility: operator address required (use WithOperator)")
	}
	if cfg.admin == (common.Address{}) {
		return nil, errors.New("facility: admin address required (use WithAdmin)")
	}
	if cfg.eventStream != "" && len(cfg.addrs) == 0 {
		return nil, errors.New("facility: event stream requires a database (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("facility: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("facility: database not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil && store != nil {
		store.Close()
	}
	return c, err
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	token := memory.NewToken(cfg.token)
	bank := memory.NewBank()

	ledger, err := ledgeruc.New(ledgeruc.Config{
		Address:         cfg.ledger,
		Token:           cfg.token,
		Admin:           cfg.admin,
		Operator:        cfg.operator,
		GasPrice:        cfg.gasPrice,
		GasCost:         cfg.gasCost,
		StrictBudget:    !cfg.permissive,
		AdminMayOperate: cfg.adminMayOperate,
	}, token.Holder(cfg.ledger), bank, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("facility: create ledger: %w", err)
	}

	var pinger healthuc.DBPinger = noopPinger{}
	if store != nil {
		pinger = store
		if cfg.eventStream != "" {
			ledger.WithPublisher(eventsrepo.New(store, cfg.eventStream, cfg.eventsMaxLen))
		}
		if _, err := ledger.WithStore(ctx, ledgerrepo.New(store, cfg.keyPrefix)); err != nil {
			return nil, fmt.Errorf("facility: %w", err)
		}
	}

	return &Client{
		store:     store,
		ledger:    ledger,
		token:     token,
		bank:      bank,
		healthSvc: healthuc.New(pinger, token, cfg.ledger),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity. Always succeeds without a database.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Address returns the ledger's own account, the holder of the claim pool.
func (c *Client) Address() common.Address { return c.ledger.Address() }

// Info describes the deployment.
func (c *Client) Info(ctx context.Context) LedgerInfo {
	return LedgerInfo{
		Address:        c.ledger.Address(),
		Token:          c.ledger.TokenAddress(),
		Operator:       c.ledger.Operator(ctx),
		RequiredBudget: c.ledger.RequiredBudget(),
		StrictBudget:   c.ledger.StrictBudget(),
		Seq:            c.ledger.Seq(ctx),
	}
}

// MintTokens credits new tokens to an account, typically the ledger's claim pool.
func (c *Client) MintTokens(to common.Address, amount *uint256.Int) error {
	if err := c.token.Mint(to, amount); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	return nil
}

// TokenBalance returns the token balance of an account.
func (c *Client) TokenBalance(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return c.token.BalanceOf(ctx, account)
}

// FundNative credits native value to an account so that it can deposit.
func (c *Client) FundNative(to common.Address, amount *uint256.Int) error {
	if err := c.bank.Fund(to, amount); err != nil {
		return fmt.Errorf("fund: %w", err)
	}
	return nil
}

// NativeBalance returns the native value balance of an account.
func (c *Client) NativeBalance(account common.Address) *uint256.Int {
	return c.bank.BalanceOf(account)
}

// Budgets returns the budget service.
func (c *Client) Budgets() *BudgetService {
	return &BudgetService{ledger: c.ledger, obs: c.obs}
}

// Allocations returns the allocation service.
func (c *Client) Allocations() *AllocationService {
	return &AllocationService{ledger: c.ledger, obs: c.obs}
}

// Roles returns the access control service.
func (c *Client) Roles() *RoleService {
	return &RoleService{ledger: c.ledger, obs: c.obs}
}

// noopPinger reports an in-memory client as reachable.
type noopPinger struct{}

func (noopPinger) Ping(context.Context) error { return nil }
