package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kailas-cloud/facility/internal/domain"
	"github.com/kailas-cloud/facility/internal/domain/event"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

// requireCapability fails with an UnauthorizedError naming the missing capability.
// Must run before any other state access of a privileged operation.
func (l *Ledger) requireCapability(caller common.Address, capability role.Capability) error {
	set := l.roles[caller]
	if set.Has(capability) {
		return nil
	}
	if capability == role.Operator && l.adminMayOperate && set.Has(role.Admin) {
		return nil
	}
	return domain.NewUnauthorized(caller, capability)
}

// GrantRole adds capability to account. Granting a held capability is a no-op.
func (l *Ledger) GrantRole(ctx context.Context, caller, account common.Address, capability role.Capability) error {
	return l.exec(ctx, OpGrantRole, func(_ context.Context, tx *txn) error {
		if err := l.requireCapability(caller, role.Admin); err != nil {
			return err
		}
		if err := validateRoleTarget(account, capability); err != nil {
			return err
		}
		l.grant(tx, caller, account, capability)
		return nil
	})
}

// RevokeRole removes capability from account. The last ADMIN cannot be revoked,
// and neither can OPERATOR of the forwarding target: that moves with TransferOperator.
func (l *Ledger) RevokeRole(ctx context.Context, caller, account common.Address, capability role.Capability) error {
	return l.exec(ctx, OpRevokeRole, func(_ context.Context, tx *txn) error {
		if err := l.requireCapability(caller, role.Admin); err != nil {
			return err
		}
		if err := validateRoleTarget(account, capability); err != nil {
			return err
		}
		if capability == role.Admin && l.roles[account].Has(role.Admin) && l.adminCount() == 1 {
			return domain.ErrLastAdmin
		}
		if capability == role.Operator && account == l.operator {
			return domain.ErrActiveOperator
		}
		l.revoke(tx, caller, account, capability)
		return nil
	})
}

// TransferOperator moves OPERATOR and the deposit forwarding target to account.
func (l *Ledger) TransferOperator(ctx context.Context, caller, account common.Address) error {
	return l.exec(ctx, OpTransferOperator, func(_ context.Context, tx *txn) error {
		if err := l.requireCapability(caller, role.Admin); err != nil {
			return err
		}
		if err := validateRoleTarget(account, role.Operator); err != nil {
			return err
		}
		if prev := l.operator; prev != account {
			l.revoke(tx, caller, prev, role.Operator)
		}
		l.grant(tx, caller, account, role.Operator)
		tx.setOperator(account)
		return nil
	})
}

func (l *Ledger) grant(tx *txn, sender, account common.Address, capability role.Capability) {
	set := l.roles[account]
	if set.Has(capability) {
		return
	}
	tx.setRoles(account, set.With(capability))
	tx.emit(event.RoleChanged(account, capability, true, sender))
}

func (l *Ledger) revoke(tx *txn, sender, account common.Address, capability role.Capability) {
	set := l.roles[account]
	if !set.Has(capability) {
		return
	}
	tx.setRoles(account, set.Without(capability))
	tx.emit(event.RoleChanged(account, capability, false, sender))
}

func validateRoleTarget(account common.Address, capability role.Capability) error {
	if account == (common.Address{}) {
		return fmt.Errorf("%w: zero account", domain.ErrInvalidArgument)
	}
	if !capability.IsValid() {
		return fmt.Errorf("%w: unknown capability %s", domain.ErrInvalidArgument, capability)
	}
	return nil
}
