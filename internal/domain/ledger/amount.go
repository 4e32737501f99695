// Package ledger holds the per-address value objects tracked by the allocation ledger.
package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/kailas-cloud/facility/internal/domain"
)

// Add returns x+y or ErrArithmeticFault on overflow.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s overflows uint256", domain.ErrArithmeticFault, x.Dec(), y.Dec())
	}
	return z, nil
}

// Sub returns x-y or ErrArithmeticFault on underflow.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("%w: %s - %s underflows", domain.ErrArithmeticFault, x.Dec(), y.Dec())
	}
	return z, nil
}

// Mul returns x*y or ErrArithmeticFault on overflow.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s overflows uint256", domain.ErrArithmeticFault, x.Dec(), y.Dec())
	}
	return z, nil
}

// ParseAmount parses a base-10 amount. Hex and negative values are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", domain.ErrInvalidArgument, s, err)
	}
	return v, nil
}
