// Package event defines the audit events emitted by committed ledger operations.
package event

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Kind names an event type. Values are the wire names consumed off-chain.
type Kind string

// Event kinds.
const (
	KindRequestingUpdate  Kind = "RequestingUpdate"
	KindAllocationUpdated Kind = "AllocationUpdated"
	KindAllocationClaimed Kind = "AllocationClaimed"
	KindRoleChanged       Kind = "RoleChanged"
)

// Event is a single ledger event. Only the fields relevant to Kind are set.
type Event struct {
	Kind       Kind
	Seq        uint64 // assigned by the ledger, strictly increasing across commits
	Account    common.Address
	Amount     *uint256.Int
	Capability role.Capability
	Granted    bool
	Sender     common.Address
}

// RequestingUpdate asks the off-chain operator to recompute the account's allocation.
func RequestingUpdate(account common.Address, deposited *uint256.Int) Event {
	return Event{Kind: KindRequestingUpdate, Account: account, Amount: deposited.Clone()}
}

// AllocationUpdated reports the new outstanding allocation of account.
func AllocationUpdated(account common.Address, value *uint256.Int) Event {
	return Event{Kind: KindAllocationUpdated, Account: account, Amount: value.Clone()}
}

// AllocationClaimed reports a payout to account.
func AllocationClaimed(account common.Address, amount *uint256.Int) Event {
	return Event{Kind: KindAllocationClaimed, Account: account, Amount: amount.Clone()}
}

// RoleChanged reports a capability grant or revocation.
func RoleChanged(account common.Address, capability role.Capability, granted bool, sender common.Address) Event {
	return Event{Kind: KindRoleChanged, Account: account, Capability: capability, Granted: granted, Sender: sender}
}

// Fields flattens the event into string fields (stream entries, log lines).
func (e Event) Fields() map[string]string {
	f := map[string]string{
		"kind":    string(e.Kind),
		"seq":     strconv.FormatUint(e.Seq, 10),
		"account": e.Account.Hex(),
	}
	if e.Amount != nil {
		f["amount"] = e.Amount.Dec()
	}
	if e.Kind == KindRoleChanged {
		f["capability"] = e.Capability.String()
		f["granted"] = strconv.FormatBool(e.Granted)
		f["sender"] = e.Sender.Hex()
	}
	return f
}
