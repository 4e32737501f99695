package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/domain"
	"github.com/kailas-cloud/facility/internal/domain/event"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

type inFlightKey struct{}

// inFlight reports whether ctx was handed out by an operation of this ledger that is still running.
func (l *Ledger) inFlight(ctx context.Context) bool {
	owner, ok := ctx.Value(inFlightKey{}).(*Ledger)
	return ok && owner == l
}

type budgetUndo struct {
	prev    domledger.Budget
	existed bool
}

type allocationUndo struct {
	prev    domledger.Allocation
	existed bool
}

type rolesUndo struct {
	prev    role.Set
	existed bool
}

// txn journals writes made by one operation. Writes go straight to the ledger maps so
// that re-entrant reads see them; rollback replays the journal.
type txn struct {
	l *Ledger

	budgets     map[common.Address]budgetUndo
	allocations map[common.Address]allocationUndo
	roles       map[common.Address]rolesUndo
	operator    *common.Address
	events      []event.Event
}

func (l *Ledger) begin() *txn {
	return &txn{
		l:           l,
		budgets:     make(map[common.Address]budgetUndo),
		allocations: make(map[common.Address]allocationUndo),
		roles:       make(map[common.Address]rolesUndo),
	}
}

func (tx *txn) budget(account common.Address) domledger.Budget {
	return tx.l.budgets[account]
}

func (tx *txn) setBudget(account common.Address, b domledger.Budget) {
	if _, seen := tx.budgets[account]; !seen {
		prev, existed := tx.l.budgets[account]
		tx.budgets[account] = budgetUndo{prev: prev, existed: existed}
	}
	tx.l.budgets[account] = b
}

func (tx *txn) allocation(account common.Address) domledger.Allocation {
	return tx.l.allocations[account]
}

func (tx *txn) setAllocation(account common.Address, a domledger.Allocation) {
	if _, seen := tx.allocations[account]; !seen {
		prev, existed := tx.l.allocations[account]
		tx.allocations[account] = allocationUndo{prev: prev, existed: existed}
	}
	tx.l.allocations[account] = a
}

func (tx *txn) setRoles(account common.Address, set role.Set) {
	if _, seen := tx.roles[account]; !seen {
		prev, existed := tx.l.roles[account]
		tx.roles[account] = rolesUndo{prev: prev, existed: existed}
	}
	if set.IsEmpty() {
		delete(tx.l.roles, account)
		return
	}
	tx.l.roles[account] = set
}

func (tx *txn) setOperator(account common.Address) {
	if tx.operator == nil {
		prev := tx.l.operator
		tx.operator = &prev
	}
	tx.l.operator = account
}

func (tx *txn) emit(e event.Event) {
	tx.events = append(tx.events, e)
}

func (tx *txn) rollback() {
	for addr, u := range tx.budgets {
		if u.existed {
			tx.l.budgets[addr] = u.prev
		} else {
			delete(tx.l.budgets, addr)
		}
	}
	for addr, u := range tx.allocations {
		if u.existed {
			tx.l.allocations[addr] = u.prev
		} else {
			delete(tx.l.allocations, addr)
		}
	}
	for addr, u := range tx.roles {
		if u.existed {
			tx.l.roles[addr] = u.prev
		} else {
			delete(tx.l.roles, addr)
		}
	}
	if tx.operator != nil {
		tx.l.operator = *tx.operator
	}
	tx.events = nil
}

// commit numbers the buffered events and returns them.
func (tx *txn) commit() []event.Event {
	for i := range tx.events {
		tx.l.seq++
		tx.events[i].Seq = tx.l.seq
	}
	return tx.events
}

// exec runs fn as one atomic operation: serialized against every other mutating call,
// rolled back on error, persisted and published on success.
func (l *Ledger) exec(ctx context.Context, op string, fn func(ctx context.Context, tx *txn) error) error {
	if l.inFlight(ctx) {
		l.record(op, domain.ErrReentrantCall)
		return fmt.Errorf("%s: %w", op, domain.ErrReentrantCall)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin()
	if err := fn(context.WithValue(ctx, inFlightKey{}, l), tx); err != nil {
		tx.rollback()
		l.record(op, err)
		l.logFailure(op, err)
		return err
	}

	events := tx.commit()
	l.persist(ctx, tx)
	l.publish(ctx, events)
	l.record(op, nil)
	l.logger.Info("Ledger operation committed", zap.String("op", op), zap.Int("events", len(events)))
	return nil
}

func (l *Ledger) record(op string, err error) {
	if l.recorder != nil {
		l.recorder.RecordOperation(op, domain.Code(err))
	}
}

func (l *Ledger) logFailure(op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientLedgerFunds):
		// Operational alert: the ledger must be topped up.
		l.logger.Warn("Ledger cannot cover claim", zap.String("op", op), zap.Error(err))
	case domain.Code(err) == domain.CodeInternal:
		l.logger.Error("Ledger operation failed", zap.String("op", op), zap.Error(err))
	default:
		l.logger.Debug("Ledger operation rejected", zap.String("op", op), zap.Error(err))
	}
}

// persist writes the entries touched by tx. Failures are logged: the operation has
// already committed and the in-memory state stays authoritative.
func (l *Ledger) persist(ctx context.Context, tx *txn) {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.persistTimeout)
	defer cancel()

	for addr := range tx.budgets {
		if err := l.store.SaveBudget(ctx, addr, l.budgets[addr]); err != nil {
			l.logger.Warn("Failed to persist budget", zap.String("account", addr.Hex()), zap.Error(err))
		}
	}
	for addr := range tx.allocations {
		if err := l.store.SaveAllocation(ctx, addr, l.allocations[addr]); err != nil {
			l.logger.Warn("Failed to persist allocation", zap.String("account", addr.Hex()), zap.Error(err))
		}
	}
	for addr := range tx.roles {
		if err := l.store.SaveRoles(ctx, addr, l.roles[addr]); err != nil {
			l.logger.Warn("Failed to persist roles", zap.String("account", addr.Hex()), zap.Error(err))
		}
	}
	if tx.operator != nil || len(tx.events) > 0 {
		if err := l.store.SaveMeta(ctx, l.operator, l.seq); err != nil {
			l.logger.Warn("Failed to persist ledger meta", zap.Error(err))
		}
	}
}

func (l *Ledger) publish(ctx context.Context, events []event.Event) {
	if l.publisher == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.persistTimeout)
	defer cancel()

	if err := l.publisher.Publish(ctx, events); err != nil {
		l.logger.Warn("Failed to publish ledger events",
			zap.Int("events", len(events)),
			zap.Uint64("last_seq", l.seq),
			zap.Error(err),
		)
	}
}
