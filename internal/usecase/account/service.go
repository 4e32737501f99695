package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	domaccount "github.com/kailas-cloud/facility/internal/domain/account"
)

// Service handles account reporting.
type Service struct {
	lr LedgerReader
}

// New creates a Service.
func New(lr LedgerReader) *Service {
	return &Service{lr: lr}
}

// GetReport builds the report of one account. Unknown accounts yield an all-zero report.
func (s *Service) GetReport(ctx context.Context, account common.Address) domaccount.Report {
	return domaccount.NewReport(
		account,
		s.lr.Budget(ctx, account),
		s.lr.Allocation(ctx, account),
		s.lr.Roles(ctx, account),
		s.lr.RequiredBudget(),
	)
}
