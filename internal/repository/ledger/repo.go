// Package ledger persists committed ledger state as Redis hashes.
package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// store is the consumer interface for ledger state (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/ledger.StateStore.
type Repo struct {
	store  store
	prefix string
}

// New creates a ledger state repository. Every key starts with prefix.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// SaveBudget writes the budget entry of account.
func (r *Repo) SaveBudget(ctx context.Context, account common.Address, b domledger.Budget) error {
	if err := r.store.HSet(ctx, r.budgetKey(account.Hex()), budgetToHash(account, b)); err != nil {
		return fmt.Errorf("hset budget %s: %w", account.Hex(), err)
	}
	return nil
}

// SaveAllocation writes the allocation entry of account.
func (r *Repo) SaveAllocation(ctx context.Context, account common.Address, a domledger.Allocation) error {
	if err := r.store.HSet(ctx, r.allocationKey(account.Hex()), allocationToHash(account, a)); err != nil {
		return fmt.Errorf("hset allocation %s: %w", account.Hex(), err)
	}
	return nil
}

// SaveRoles writes the capability set of account. An empty set is stored as such
// so that a revocation survives a restart.
func (r *Repo) SaveRoles(ctx context.Context, account common.Address, set role.Set) error {
	if err := r.store.HSet(ctx, r.rolesKey(account.Hex()), rolesToHash(account, set)); err != nil {
		return fmt.Errorf("hset roles %s: %w", account.Hex(), err)
	}
	return nil
}

// SaveMeta writes the current operator and event sequence.
func (r *Repo) SaveMeta(ctx context.Context, operator common.Address, seq uint64) error {
	if err := r.store.HSet(ctx, r.metaKey(), metaToHash(operator, seq)); err != nil {
		return fmt.Errorf("hset ledger meta: %w", err)
	}
	return nil
}

// Load rebuilds the persisted ledger state. A never-written store yields an empty snapshot.
func (r *Repo) Load(ctx context.Context) (domledger.Snapshot, error) {
	var snap domledger.Snapshot

	meta, err := r.store.HGetAll(ctx, r.metaKey())
	if err != nil {
		return snap, fmt.Errorf("hgetall ledger meta: %w", err)
	}
	if len(meta) > 0 {
		snap.Operator, snap.Seq, err = metaFromHash(meta)
		if err != nil {
			return snap, fmt.Errorf("parse ledger meta: %w", err)
		}
	}

	budgets, err := r.loadAll(ctx, r.budgetKey("*"))
	if err != nil {
		return snap, fmt.Errorf("load budgets: %w", err)
	}
	snap.Budgets = make(map[common.Address]domledger.Budget, len(budgets))
	for _, m := range budgets {
		account, b, err := budgetFromHash(m)
		if err != nil {
			return snap, fmt.Errorf("parse budget: %w", err)
		}
		snap.Budgets[account] = b
	}

	allocations, err := r.loadAll(ctx, r.allocationKey("*"))
	if err != nil {
		return snap, fmt.Errorf("load allocations: %w", err)
	}
	snap.Allocations = make(map[common.Address]domledger.Allocation, len(allocations))
	for _, m := range allocations {
		account, a, err := allocationFromHash(m)
		if err != nil {
			return snap, fmt.Errorf("parse allocation: %w", err)
		}
		snap.Allocations[account] = a
	}

	roles, err := r.loadAll(ctx, r.rolesKey("*"))
	if err != nil {
		return snap, fmt.Errorf("load roles: %w", err)
	}
	snap.Roles = make(map[common.Address]role.Set, len(roles))
	for _, m := range roles {
		account, set, err := rolesFromHash(m)
		if err != nil {
			return snap, fmt.Errorf("parse roles: %w", err)
		}
		if !set.IsEmpty() {
			snap.Roles[account] = set
		}
	}

	return snap, nil
}

func (r *Repo) loadAll(ctx context.Context, pattern string) ([]map[string]string, error) {
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	out := make([]map[string]string, 0, len(results))
	for _, m := range results {
		if len(m) > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

// Key patterns: {prefix}budget:{account}, {prefix}allocation:{account}, {prefix}roles:{account}, {prefix}meta

func (r *Repo) budgetKey(account string) string {
	return fmt.Sprintf("%sbudget:%s", r.prefix, account)
}

func (r *Repo) allocationKey(account string) string {
	return fmt.Sprintf("%sallocation:%s", r.prefix, account)
}

func (r *Repo) rolesKey(account string) string {
	return fmt.Sprintf("%sroles:%s", r.prefix, account)
}

func (r *Repo) metaKey() string {
	return r.prefix + "meta"
}
