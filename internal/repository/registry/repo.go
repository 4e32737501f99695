// Package registry publishes deployment coordinates (ledger address, test accounts)
// under well-known keys so that sibling services can discover them.
package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailas-cloud/facility/internal/db"
	"github.com/kailas-cloud/facility/internal/domain"
)

// store is the consumer interface for the registry (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Keys names the registry entries.
type Keys struct {
	LedgerAddress string
	TestAccounts  string
}

// Repo reads and writes registry entries.
type Repo struct {
	store store
	keys  Keys
}

// New creates a registry repository.
func New(s store, keys Keys) *Repo {
	return &Repo{store: s, keys: keys}
}

// PublishLedgerAddress stores the ledger's account address.
func (r *Repo) PublishLedgerAddress(ctx context.Context, address common.Address) error {
	if err := r.store.Set(ctx, r.keys.LedgerAddress, []byte(address.Hex())); err != nil {
		return fmt.Errorf("set %s: %w", r.keys.LedgerAddress, err)
	}
	return nil
}

// LedgerAddress returns the published ledger address or domain.ErrNotFound.
func (r *Repo) LedgerAddress(ctx context.Context) (common.Address, error) {
	data, err := r.get(ctx, r.keys.LedgerAddress)
	if err != nil {
		return common.Address{}, err
	}
	s := strings.TrimSpace(string(data))
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("registry %s holds invalid address %q", r.keys.LedgerAddress, s)
	}
	return common.HexToAddress(s), nil
}

// PublishTestAccounts stores the private keys as base64(JSON array of hex strings).
func (r *Repo) PublishTestAccounts(ctx context.Context, privateKeys []string) error {
	raw, err := json.Marshal(privateKeys)
	if err != nil {
		return fmt.Errorf("marshal test accounts: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := r.store.Set(ctx, r.keys.TestAccounts, []byte(encoded)); err != nil {
		return fmt.Errorf("set %s: %w", r.keys.TestAccounts, err)
	}
	return nil
}

// TestAccounts returns the published private keys or domain.ErrNotFound.
func (r *Repo) TestAccounts(ctx context.Context) ([]string, error) {
	data, err := r.get(ctx, r.keys.TestAccounts)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("decode test accounts: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("unmarshal test accounts: %w", err)
	}
	return keys, nil
}

// ClearTestAccounts removes the published test accounts.
func (r *Repo) ClearTestAccounts(ctx context.Context) error {
	if err := r.store.Del(ctx, r.keys.TestAccounts); err != nil {
		return fmt.Errorf("del %s: %w", r.keys.TestAccounts, err)
	}
	return nil
}

func (r *Repo) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("registry %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}
