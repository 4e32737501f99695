package testaccounts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Funder sends native value between accounts.
type Funder interface {
	Send(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// Registry publishes generated account keys.
type Registry interface {
	PublishTestAccounts(ctx context.Context, privateKeys []string) error
}
