package memory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Bank holds native value balances.
type Bank struct {
	balances balances
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{}
}

// Fund credits amount to account.
func (b *Bank) Fund(account common.Address, amount *uint256.Int) error {
	return b.balances.mint(account, amount)
}

// BalanceOf returns the native balance of account.
func (b *Bank) BalanceOf(account common.Address) *uint256.Int {
	return b.balances.balanceOf(account)
}

// Send moves native value between accounts.
func (b *Bank) Send(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	return b.balances.move(from, to, amount)
}

// Forward moves a deposit from the requester to the operator.
func (b *Bank) Forward(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return b.Send(ctx, from, to, amount)
}
