package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Snapshot is the persisted state of a ledger.
type Snapshot struct {
	Operator    common.Address
	Seq         uint64
	Budgets     map[common.Address]Budget
	Allocations map[common.Address]Allocation
	Roles       map[common.Address]role.Set
}

// IsEmpty reports whether nothing was ever persisted.
func (s *Snapshot) IsEmpty() bool {
	return s.Operator == (common.Address{}) &&
		len(s.Budgets) == 0 && len(s.Allocations) == 0 && len(s.Roles) == 0
}
