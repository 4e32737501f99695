// Package account holds the per-account ledger report.
package account

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Report is a read-only view of one account across budgets, allocations and roles.
type Report struct {
	account           common.Address
	budget            domledger.Budget
	allocation        domledger.Allocation
	roles             role.Set
	remainingRequests *uint256.Int
}

// NewReport creates a Report.
func NewReport(
	account common.Address, b domledger.Budget, a domledger.Allocation, roles role.Set, required *uint256.Int,
) Report {
	return Report{
		account:           account,
		budget:            b,
		allocation:        a,
		roles:             roles,
		remainingRequests: b.Requests(required),
	}
}

func (r Report) Account() common.Address          { return r.account }
func (r Report) Budget() domledger.Budget         { return r.budget }
func (r Report) Allocation() domledger.Allocation { return r.allocation }
func (r Report) Roles() role.Set                  { return r.roles }
func (r Report) RemainingRequests() *uint256.Int  { return r.remainingRequests.Clone() }
func (r Report) CanClaim() bool                   { return r.allocation.Claimable() == nil }
