package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/domain"
	domledger "github.com/kailas-cloud/facility/internal/domain/ledger"
	"github.com/kailas-cloud/facility/internal/domain/role"
	logpkg "github.com/kailas-cloud/facility/internal/logger"
	accountuc "github.com/kailas-cloud/facility/internal/usecase/account"
	healthuc "github.com/kailas-cloud/facility/internal/usecase/health"
	ledgeruc "github.com/kailas-cloud/facility/internal/usecase/ledger"
)

// errorStatuses maps domain failures to HTTP statuses. The body code comes from domain.Code.
var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidArgument, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrNoBudget, http.StatusPaymentRequired},
	{domain.ErrBudgetDepleted, http.StatusPaymentRequired},
	{domain.ErrNothingAllocated, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrNothingAvailable, http.StatusConflict},
	{domain.ErrInsufficientLedgerFunds, http.StatusConflict},
	{domain.ErrLastAdmin, http.StatusConflict},
	{domain.ErrActiveOperator, http.StatusConflict},
	{domain.ErrReentrantCall, http.StatusConflict},
	{domain.ErrArithmeticFault, http.StatusUnprocessableEntity},
	{domain.ErrTransferFailed, http.StatusBadGateway},
	{domain.ErrForwardFailed, http.StatusBadGateway},
}

// Server serves the ledger over HTTP.
type Server struct {
	ledger   *ledgeruc.Ledger
	accounts *accountuc.Service
	health   *healthuc.Service
	token    healthuc.TokenReader
	logger   *zap.Logger
}

// NewServer creates an HTTP API server. token may be nil; it only feeds the
// balance shown by GET /ledger.
func NewServer(
	ledger *ledgeruc.Ledger,
	accounts *accountuc.Service,
	health *healthuc.Service,
	token healthuc.TokenReader,
	logger *zap.Logger,
) *Server {
	return &Server{
		ledger:   ledger,
		accounts: accounts,
		health:   health,
		token:    token,
		logger:   logger,
	}
}

// Routes registers all API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/ledger", s.GetLedger)

	r.Post("/requests", s.RequestUpdate)

	r.Route("/allocations", func(r chi.Router) {
		r.Post("/claim", s.ClaimAllocation)
		r.Get("/{address}", s.GetAllocation)
		r.Put("/{address}", s.UpdateAllocation)
		r.Post("/{address}/claim", s.UpdateAndClaimAllocation)
	})

	r.Get("/budgets/{address}", s.GetBudget)
	r.Get("/accounts/{address}", s.GetAccount)

	r.Get("/roles/{address}", s.GetRoles)
	r.Put("/roles/{address}/{capability}", s.GrantRole)
	r.Delete("/roles/{address}/{capability}", s.RevokeRole)

	r.Put("/operator", s.TransferOperator)
}

// RequestUpdate handles POST /requests.
func (s *Server) RequestUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	// An empty body is a zero-value request.
	var req requestUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, "Invalid request body: "+err.Error())
		return
	}
	value, err := parseOptionalAmount(req.Value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.ledger.RequestUpdate(r.Context(), caller, value); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, budgetToResponse(caller.Hex(), s.ledger.Budget(r.Context(), caller)))
}

// UpdateAllocation handles PUT /allocations/{address}. The mode defaults to additive.
func (s *Server) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	beneficiary, ok := pathAddress(w, r)
	if !ok {
		return
	}
	amount, mode, ok := decodeAllocationUpdate(w, r, domledger.Additive)
	if !ok {
		return
	}

	if _, err := s.ledger.UpdateAllocation(r.Context(), caller, beneficiary, amount, mode); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK,
		allocationToResponse(beneficiary.Hex(), s.ledger.Allocation(r.Context(), beneficiary)))
}

// ClaimAllocation handles POST /allocations/claim: the caller claims its own allocation.
func (s *Server) ClaimAllocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	paid, err := s.ledger.ClaimAllocation(r.Context(), caller)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{Account: caller.Hex(), Amount: paid.Dec()})
}

// UpdateAndClaimAllocation handles POST /allocations/{address}/claim. The mode
// defaults to absolute: the operator states the exact amount to pay out.
func (s *Server) UpdateAndClaimAllocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	beneficiary, ok := pathAddress(w, r)
	if !ok {
		return
	}
	amount, mode, ok := decodeAllocationUpdate(w, r, domledger.Absolute)
	if !ok {
		return
	}

	paid, err := s.ledger.UpdateAndClaimAllocation(r.Context(), caller, beneficiary, amount, mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{Account: beneficiary.Hex(), Amount: paid.Dec()})
}

// GetAllocation handles GET /allocations/{address}.
func (s *Server) GetAllocation(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, allocationToResponse(account.Hex(), s.ledger.Allocation(r.Context(), account)))
}

// GetBudget handles GET /budgets/{address}.
func (s *Server) GetBudget(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, budgetToResponse(account.Hex(), s.ledger.Budget(r.Context(), account)))
}

// GetAccount handles GET /accounts/{address}.
func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(s.accounts.GetReport(r.Context(), account)))
}

// GetRoles handles GET /roles/{address}.
func (s *Server) GetRoles(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rolesResponse{
		Account: account.Hex(),
		Roles:   s.ledger.Roles(r.Context(), account).Names(),
	})
}

// GrantRole handles PUT /roles/{address}/{capability}.
func (s *Server) GrantRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, s.ledger.GrantRole)
}

// RevokeRole handles DELETE /roles/{address}/{capability}.
func (s *Server) RevokeRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, s.ledger.RevokeRole)
}

type roleChange func(ctx context.Context, caller, account common.Address, capability role.Capability) error

func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, change roleChange) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r)
	if !ok {
		return
	}
	capability, err := role.Parse(chi.URLParam(r, "capability"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, err.Error())
		return
	}

	if err := change(r.Context(), caller, account, capability); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rolesResponse{
		Account: account.Hex(),
		Roles:   s.ledger.Roles(r.Context(), account).Names(),
	})
}

// TransferOperator handles PUT /operator.
func (s *Server) TransferOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	var req operatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, "Invalid request body: "+err.Error())
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, err.Error())
		return
	}

	if err := s.ledger.TransferOperator(r.Context(), caller, account); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.GetLedger(w, r)
}

// GetLedger handles GET /ledger.
func (s *Server) GetLedger(w http.ResponseWriter, r *http.Request) {
	resp := ledgerResponse{
		Address:        s.ledger.Address().Hex(),
		Token:          s.ledger.TokenAddress().Hex(),
		Operator:       s.ledger.Operator(r.Context()).Hex(),
		RequiredBudget: s.ledger.RequiredBudget().Dec(),
		StrictBudget:   s.ledger.StrictBudget(),
		Seq:            s.ledger.Seq(r.Context()),
	}
	if s.token != nil {
		if balance, err := s.token.BalanceOf(r.Context(), s.ledger.Address()); err == nil {
			resp.Balance = balance.Dec()
		} else {
			logpkg.FromContext(r.Context()).Warn("ledger balance unavailable", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.CodeUnauthorized, "authentication required")
		return common.Address{}, false
	}
	return caller, true
}

func decodeAllocationUpdate(
	w http.ResponseWriter, r *http.Request, defaultMode domledger.Mode,
) (*uint256.Int, domledger.Mode, bool) {
	var req allocationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, "Invalid request body: "+err.Error())
		return nil, 0, false
	}
	amount, err := domledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, err.Error())
		return nil, 0, false
	}
	mode, err := parseMode(req.Mode, defaultMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, err.Error())
		return nil, 0, false
	}
	return amount, mode, true
}

func parseMode(s string, def domledger.Mode) (domledger.Mode, error) {
	switch s {
	case "":
		return def, nil
	case "additive":
		return domledger.Additive, nil
	case "absolute":
		return domledger.Absolute, nil
	default:
		return 0, fmt.Errorf("mode must be additive or absolute, got %q", s)
	}
}

func parseOptionalAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return domledger.ParseAmount(s)
}

func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	a, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidArgument, err.Error())
		return common.Address{}, false
	}
	return a, true
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var ue *domain.UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.err.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			log.Warn("domain error", zap.Error(err))
			writeError(w, e.status, domain.Code(err), safeDomainMessage(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, domain.CodeInternal, "internal error")
}
