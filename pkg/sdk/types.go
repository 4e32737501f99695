package facility

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Mode selects how an allocation update combines with the outstanding amount.
type Mode = domledger.Mode

// Allocation update modes.
const (
	Additive = domledger.Additive
	Absolute = domledger.Absolute
)

// Capability is a ledger permission.
type Capability = role.Capability

// Capabilities.
const (
	Admin    = role.Admin
	Operator = role.Operator
)

// Budget is the prepaid request budget of one account.
type Budget struct {
	Account   common.Address
	Sent      *uint256.Int
	Used      *uint256.Int
	Available *uint256.Int
}

// Allocation is the claimable token amount of one beneficiary.
type Allocation struct {
	Account   common.Address
	Allocated *uint256.Int
	Claimed   *uint256.Int
}

// LedgerInfo describes the deployment.
type LedgerInfo struct {
	Address        common.Address
	Token          common.Address
	Operator       common.Address
	RequiredBudget *uint256.Int
	StrictBudget   bool
	Seq            uint64
}

func fromInternalBudget(account common.Address, b domledger.Budget) Budget {
	return Budget{
		Account:   account,
		Sent:      b.Sent(),
		Used:      b.Used(),
		Available: b.Available(),
	}
}

func fromInternalAllocation(account common.Address, a domledger.Allocation) Allocation {
	return Allocation{
		Account:   account,
		Allocated: a.Allocated(),
		Claimed:   a.Claimed(),
	}
}
