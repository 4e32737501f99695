// Package memory provides in-process implementations of the ledger's on-chain
// collaborators: a fungible token and a native value bank.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientBalance signals a transfer larger than the sender's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrZeroAddress signals a transfer to or from the zero address.
var ErrZeroAddress = errors.New("zero address")

// balances is a mutex-guarded address -> amount book.
type balances struct {
	mu   sync.Mutex
	book map[common.Address]uint256.Int
}

func (b *balances) balanceOf(owner common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.book[owner]
	return v.Clone()
}

func (b *balances) mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.book == nil {
		b.book = make(map[common.Address]uint256.Int)
	}
	cur := b.book[to]
	next, overflow := new(uint256.Int).AddOverflow(&cur, amount)
	if overflow {
		return fmt.Errorf("mint to %s overflows", to.Hex())
	}
	b.book[to] = *next
	return nil
}

// move transfers amount from -> to. It fails instead of truncating.
func (b *balances) move(from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	src := b.book[from]
	if src.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), src.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	if b.book == nil {
		b.book = make(map[common.Address]uint256.Int)
	}
	dst := b.book[to]
	next, overflow := new(uint256.Int).AddOverflow(&dst, amount)
	if overflow {
		return fmt.Errorf("credit to %s overflows", to.Hex())
	}
	src.Sub(&src, amount)
	b.book[from] = src
	b.book[to] = *next
	return nil
}

// TransferHook runs inside Holder.Transfer before balances move. It receives the
// caller's ctx so callbacks into the ledger are recognized as re-entrant.
type TransferHook func(ctx context.Context, from, to common.Address, amount *uint256.Int) error

// Token is an ERC-20 style fungible token.
type Token struct {
	address  common.Address
	balances balances

	hookMu sync.Mutex
	hook   TransferHook
}

// NewToken creates a token deployed at address with no supply.
func NewToken(address common.Address) *Token {
	return &Token{address: address}
}

// Address returns the token contract address.
func (t *Token) Address() common.Address { return t.address }

// Mint credits amount to account.
func (t *Token) Mint(to common.Address, amount *uint256.Int) error {
	return t.balances.mint(to, amount)
}

// BalanceOf returns the balance of owner.
func (t *Token) BalanceOf(_ context.Context, owner common.Address) (*uint256.Int, error) {
	return t.balances.balanceOf(owner), nil
}

// TransferFrom moves amount between two accounts.
func (t *Token) TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	t.hookMu.Lock()
	hook := t.hook
	t.hookMu.Unlock()

	if hook != nil {
		if err := hook(ctx, from, to, amount); err != nil {
			return err
		}
	}
	return t.balances.move(from, to, amount)
}

// OnTransfer installs a hook run on every transfer (nil removes it).
func (t *Token) OnTransfer(hook TransferHook) {
	t.hookMu.Lock()
	defer t.hookMu.Unlock()
	t.hook = hook
}

// Holder binds the token to one account, the sender of every Transfer.
func (t *Token) Holder(account common.Address) *Holder {
	return &Holder{token: t, account: account}
}

// Holder is a token view acting as a single account.
type Holder struct {
	token   *Token
	account common.Address
}

// BalanceOf returns the balance of owner.
func (h *Holder) BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	return h.token.BalanceOf(ctx, owner)
}

// Transfer sends amount from the bound account to to.
func (h *Holder) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	return h.token.TransferFrom(ctx, h.account, to, amount)
}
