package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain/event"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Token is the external fungible-token contract as seen by the ledger.
// Transfer moves tokens out of the ledger's own balance and must fail rather than
// truncate when the balance is short. Implementations may call back into the ledger;
// such calls must carry the ctx they received.
type Token interface {
	BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// ValueForwarder moves native value deposited by a requester on to the operator.
type ValueForwarder interface {
	Forward(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// EventPublisher receives events of committed operations, in commit order.
type EventPublisher interface {
	Publish(ctx context.Context, events []event.Event) error
}

// StateStore persists committed ledger state.
type StateStore interface {
	Load(ctx context.Context) (domledger.Snapshot, error)
	SaveBudget(ctx context.Context, account common.Address, b domledger.Budget) error
	SaveAllocation(ctx context.Context, account common.Address, a domledger.Allocation) error
	SaveRoles(ctx context.Context, account common.Address, roles role.Set) error
	SaveMeta(ctx context.Context, operator common.Address, seq uint64) error
}

// Recorder counts operation outcomes by stable result code.
type Recorder interface {
	RecordOperation(op, code string)
}
