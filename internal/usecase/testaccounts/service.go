// Package testaccounts provisions funded throwaway accounts for test environments.
package testaccounts

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// DefaultFunding is the native value sent to each generated account (0.1 of a whole unit).
var DefaultFunding = uint256.NewInt(100_000_000_000_000_000)

// Account is a generated key pair.
type Account struct {
	Address    common.Address
	PrivateKey string // 0x-prefixed hex
}

// Service generates, funds and publishes test accounts.
type Service struct {
	funder   Funder
	registry Registry
	operator common.Address
	funding  *uint256.Int
	logger   *zap.Logger

	keygen func() (*ecdsa.PrivateKey, error)
}

// New creates a Service funding accounts from operator. registry may be nil.
func New(funder Funder, registry Registry, operator common.Address, funding *uint256.Int, logger *zap.Logger) *Service {
	if funding == nil {
		funding = DefaultFunding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		funder:   funder,
		registry: registry,
		operator: operator,
		funding:  funding.Clone(),
		logger:   logger,
		keygen:   crypto.GenerateKey,
	}
}

// Generate creates count accounts, funds each from the operator and publishes their keys.
func (s *Service) Generate(ctx context.Context, count int) ([]Account, error) {
	if count <= 0 {
		return nil, errors.New("count must be positive")
	}

	accounts := make([]Account, 0, count)
	for i := 0; i < count; i++ {
		key, err := s.keygen()
		if err != nil {
			return nil, fmt.Errorf("generate key %d: %w", i, err)
		}
		acct := Account{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		}
		if err := s.funder.Send(ctx, s.operator, acct.Address, s.funding); err != nil {
			return nil, fmt.Errorf("fund %s: %w", acct.Address.Hex(), err)
		}
		accounts = append(accounts, acct)
	}

	s.logger.Info("Test accounts generated",
		zap.Int("count", len(accounts)),
		zap.String("funding", s.funding.Dec()),
		zap.String("operator", s.operator.Hex()),
	)

	if s.registry == nil {
		return accounts, nil
	}
	keys := make([]string, len(accounts))
	for i, a := range accounts {
		keys[i] = a.PrivateKey
	}
	if err := s.registry.PublishTestAccounts(ctx, keys); err != nil {
		return accounts, fmt.Errorf("publish test accounts: %w", err)
	}
	return accounts, nil
}
