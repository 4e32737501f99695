package ledger

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
)

func budgetToHash(account common.Address, b domledger.Budget) map[string]string {
	return map[string]string{
		"account": account.Hex(),
		"sent":    b.Sent().Dec(),
		"used":    b.Used().Dec(),
	}
}

func budgetFromHash(m map[string]string) (common.Address, domledger.Budget, error) {
	account, err := parseAccount(m["account"])
	if err != nil {
		return common.Address{}, domledger.Budget{}, err
	}
	sent, err := parseAmount("sent", m["sent"])
	if err != nil {
		return common.Address{}, domledger.Budget{}, err
	}
	used, err := parseAmount("used", m["used"])
	if err != nil {
		return common.Address{}, domledger.Budget{}, err
	}
	return account, domledger.ReconstructBudget(sent, used), nil
}

func allocationToHash(account common.Address, a domledger.Allocation) map[string]string {
	return map[string]string{
		"account":   account.Hex(),
		"allocated": a.Allocated().Dec(),
		"claimed":   a.Claimed().Dec(),
	}
}

func allocationFromHash(m map[string]string) (common.Address, domledger.Allocation, error) {
	account, err := parseAccount(m["account"])
	if err != nil {
		return common.Address{}, domledger.Allocation{}, err
	}
	allocated, err := parseAmount("allocated", m["allocated"])
	if err != nil {
		return common.Address{}, domledger.Allocation{}, err
	}
	claimed, err := parseAmount("claimed", m["claimed"])
	if err != nil {
		return common.Address{}, domledger.Allocation{}, err
	}
	return account, domledger.ReconstructAllocation(allocated, claimed), nil
}

func rolesToHash(account common.Address, set role.Set) map[string]string {
	return map[string]string{
		"account": account.Hex(),
		"caps":    set.String(),
	}
}

func rolesFromHash(m map[string]string) (common.Address, role.Set, error) {
	account, err := parseAccount(m["account"])
	if err != nil {
		return common.Address{}, 0, err
	}
	set, err := role.ParseSet(m["caps"])
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("invalid caps: %w", err)
	}
	return account, set, nil
}

func metaToHash(operator common.Address, seq uint64) map[string]string {
	return map[string]string{
		"operator": operator.Hex(),
		"seq":      strconv.FormatUint(seq, 10),
	}
}

func metaFromHash(m map[string]string) (common.Address, uint64, error) {
	operator, err := parseAccount(m["operator"])
	if err != nil {
		return common.Address{}, 0, err
	}
	var seq uint64
	if s := m["seq"]; s != "" {
		seq, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return common.Address{}, 0, fmt.Errorf("invalid seq: %w", err)
		}
	}
	return operator, seq, nil
}

func parseAccount(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid account %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount treats a missing field as zero.
func parseAmount(field, s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return v, nil
}
