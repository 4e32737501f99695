package health

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// TokenReader reads token balances.
type TokenReader interface {
	BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error)
}
