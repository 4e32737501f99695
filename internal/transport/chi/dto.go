package chi

import (
	domaccount "github.com/kailas-cloud/facility/internal/domain/account"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
)

// Amounts travel as base-10 strings: they routinely exceed 2^53.

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type requestUpdateRequest struct {
	Value string `json:"value"`
}

type allocationUpdateRequest struct {
	Amount string `json:"amount"`
	Mode   string `json:"mode,omitempty"` // additive | absolute
}

type operatorRequest struct {
	Account string `json:"account"`
}

type budgetResponse struct {
	Account   string `json:"account"`
	Sent      string `json:"sent"`
	Used      string `json:"used"`
	Available string `json:"available"`
}

type allocationResponse struct {
	Account   string `json:"account"`
	Allocated string `json:"allocated"`
	Claimed   string `json:"claimed"`
}

type claimResponse struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type rolesResponse struct {
	Account string   `json:"account"`
	Roles   []string `json:"roles"`
}

type accountResponse struct {
	Account           string             `json:"account"`
	Budget            budgetResponse     `json:"budget"`
	Allocation        allocationResponse `json:"allocation"`
	Roles             []string           `json:"roles"`
	RemainingRequests string             `json:"remaining_requests"`
	CanClaim          bool               `json:"can_claim"`
}

type ledgerResponse struct {
	Address        string `json:"address"`
	Token          string `json:"token"`
	Operator       string `json:"operator"`
	RequiredBudget string `json:"required_budget"`
	StrictBudget   bool   `json:"strict_budget"`
	Seq            uint64 `json:"seq"`
	Balance        string `json:"balance,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func budgetToResponse(account string, b domledger.Budget) budgetResponse {
	return budgetResponse{
		Account:   account,
		Sent:      b.Sent().Dec(),
		Used:      b.Used().Dec(),
		Available: b.Available().Dec(),
	}
}

func allocationToResponse(account string, a domledger.Allocation) allocationResponse {
	return allocationResponse{
		Account:   account,
		Allocated: a.Allocated().Dec(),
		Claimed:   a.Claimed().Dec(),
	}
}

func reportToResponse(r domaccount.Report) accountResponse {
	account := r.Account().Hex()
	roles := r.Roles().Names()
	return accountResponse{
		Account:           account,
		Budget:            budgetToResponse(account, r.Budget()),
		Allocation:        allocationToResponse(account, r.Allocation()),
		Roles:             roles,
		RemainingRequests: r.RemainingRequests().Dec(),
		CanClaim:          r.CanClaim(),
	}
}
