package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/chain/memory"
	"github.com/kailas-cloud/facility/internal/config"
	dbRedis "github.com/kailas-cloud/facility/internal/db/redis"
	logpkg "github.com/kailas-cloud/facility/internal/logger"
	"github.com/kailas-cloud/facility/internal/metrics"
	eventsrepo "github.com/kailas-cloud/facility/internal/repository/events"
	ledgerrepo "github.com/kailas-cloud/facility/internal/repository/ledger"
	registryrepo "github.com/kailas-cloud/facility/internal/repository/registry"
	chiTransport "github.com/kailas-cloud/facility/internal/transport/chi"
	accountuc "github.com/kailas-cloud/facility/internal/usecase/account"
	healthuc "github.com/kailas-cloud/facility/internal/usecase/health"
	ledgeruc "github.com/kailas-cloud/facility/internal/usecase/ledger"
	"github.com/kailas-cloud/facility/internal/usecase/testaccounts"
	"github.com/kailas-cloud/facility/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facility ledger server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register ledger metrics explicitly (no init())
	metrics.RegisterLedgerMetrics()

	token, bank, err := buildChain(cfg.Ledger)
	if err != nil {
		logger.Fatal("Failed to create chain", zap.Error(err))
	}

	ledgerCfg, err := buildLedgerConfig(cfg.Ledger)
	if err != nil {
		logger.Fatal("Invalid ledger config", zap.Error(err))
	}

	ledger, err := ledgeruc.New(ledgerCfg, token.Holder(ledgerCfg.Address), bank, logger)
	if err != nil {
		logger.Fatal("Failed to create ledger", zap.Error(err))
	}

	publisher := eventsrepo.New(store, cfg.Events.Stream, cfg.Events.MaxLen).WithCounter(metrics.Recorder{})
	ledger.WithPublisher(publisher).WithRecorder(metrics.Recorder{})

	// Persisted state wins over the configured genesis state.
	if _, err := ledger.WithStore(ctx, ledgerrepo.New(store, cfg.Storage.KeyPrefix)); err != nil {
		logger.Fatal("Failed to load ledger state", zap.Error(err))
	}
	// Genesis balances and test accounts belong to a fresh deployment only.
	fresh := !ledger.Restored()
	if fresh {
		if err := seedGenesis(cfg.Chain, token, bank); err != nil {
			logger.Fatal("Failed to seed chain balances", zap.Error(err))
		}
	} else {
		logger.Warn("Ledger state restored, genesis balances and test accounts not re-issued")
	}
	logger.Info("Ledger ready",
		zap.String("address", ledger.Address().Hex()),
		zap.String("operator", ledger.Operator(ctx).Hex()),
		zap.String("required_budget", ledger.RequiredBudget().Dec()),
		zap.Bool("strict_budget", ledger.StrictBudget()),
	)

	if cfg.Registry.PublishOnStart {
		publishRegistry(ctx, cfg, store, bank, ledger, fresh, logger)
	}

	accountSvc := accountuc.New(ledger)
	healthSvc := healthuc.New(store, token, ledger.Address())

	server := chiTransport.NewServer(ledger, accountSvc, healthSvc, token, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.ParsedAccounts()))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildChain creates the empty in-process token and native value bank.
func buildChain(lc config.LedgerConfig) (*memory.Token, *memory.Bank, error) {
	tokenAddr, err := config.ParseAddress(lc.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("token address: %w", err)
	}
	return memory.NewToken(tokenAddr), memory.NewBank(), nil
}

// seedGenesis mints the configured token balances and funds the native balances.
func seedGenesis(cc config.ChainConfig, token *memory.Token, bank *memory.Bank) error {
	tokenBalances, err := cc.ParsedTokenBalances()
	if err != nil {
		return err
	}
	for acct, amount := range tokenBalances {
		if err := token.Mint(acct, amount); err != nil {
			return fmt.Errorf("mint %s: %w", acct.Hex(), err)
		}
	}

	nativeBalances, err := cc.ParsedNativeBalances()
	if err != nil {
		return err
	}
	for acct, amount := range nativeBalances {
		if err := bank.Fund(acct, amount); err != nil {
			return fmt.Errorf("fund %s: %w", acct.Hex(), err)
		}
	}
	return nil
}

func buildLedgerConfig(lc config.LedgerConfig) (ledgeruc.Config, error) {
	var out ledgeruc.Config
	var err error

	if out.Address, err = config.ParseAddress(lc.Address); err != nil {
		return out, fmt.Errorf("address: %w", err)
	}
	if out.Token, err = config.ParseAddress(lc.Token); err != nil {
		return out, fmt.Errorf("token: %w", err)
	}
	if out.Operator, err = config.ParseAddress(lc.Operator); err != nil {
		return out, fmt.Errorf("operator: %w", err)
	}
	if lc.Admin != "" {
		if out.Admin, err = config.ParseAddress(lc.Admin); err != nil {
			return out, fmt.Errorf("admin: %w", err)
		}
	}
	if out.Roles, err = lc.ParsedRoles(); err != nil {
		return out, err
	}
	if out.GasPrice, err = config.ParseAmount(lc.GasPrice); err != nil {
		return out, fmt.Errorf("gas price: %w", err)
	}
	if out.GasCost, err = config.ParseAmount(lc.GasCost); err != nil {
		return out, fmt.Errorf("gas cost: %w", err)
	}
	out.StrictBudget = lc.StrictBudget == nil || *lc.StrictBudget
	out.AdminMayOperate = lc.AdminMayOperate
	return out, nil
}

// publishRegistry announces the ledger address and, on a fresh deployment, provisions
// funded test accounts. Failures are logged: the ledger serves without a registry.
func publishRegistry(
	ctx context.Context,
	cfg config.Config,
	store *dbRedis.Store,
	bank *memory.Bank,
	ledger *ledgeruc.Ledger,
	fresh bool,
	logger *zap.Logger,
) {
	registry := registryrepo.New(store, registryrepo.Keys{
		LedgerAddress: cfg.Registry.LedgerAddressKey,
		TestAccounts:  cfg.Registry.TestAccountsKey,
	})

	if err := registry.PublishLedgerAddress(ctx, ledger.Address()); err != nil {
		logger.Warn("Failed to publish ledger address", zap.Error(err))
		return
	}
	if !fresh {
		return
	}

	var funding *uint256.Int
	if cfg.TestAccounts.Funding != "" {
		funding, _ = config.ParseAmount(cfg.TestAccounts.Funding) // validated on load
	}
	gen := testaccounts.New(bank, registry, ledger.Operator(ctx), funding, logger)
	if _, err := gen.Generate(ctx, cfg.TestAccounts.Count); err != nil {
		logger.Warn("Failed to provision test accounts", zap.Error(err))
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
