package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// LedgerReader provides read-only access to ledger state.
type LedgerReader interface {
	Budget(ctx context.Context, account common.Address) domledger.Budget
	Allocation(ctx context.Context, account common.Address) domledger.Allocation
	Roles(ctx context.Context, account common.Address) role.Set
	RequiredBudget() *uint256.Int
}
