// Command registry inspects the deployment registry: the published ledger address
// and the keys of provisioned test accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/config"
	dbRedis "github.com/kailas-cloud/facility/internal/db/redis"
	"github.com/kailas-cloud/facility/internal/domain"
	logpkg "github.com/kailas-cloud/facility/internal/logger"
	registryrepo "github.com/kailas-cloud/facility/internal/repository/registry"
)

func main() {
	clearAccounts := flag.Bool("clear-test-accounts", false, "delete the published test accounts")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	defer cancel()

	registry := registryrepo.New(store, registryrepo.Keys{
		LedgerAddress: cfg.Registry.LedgerAddressKey,
		TestAccounts:  cfg.Registry.TestAccountsKey,
	})

	if *clearAccounts {
		if err := registry.ClearTestAccounts(ctx); err != nil {
			logger.Fatal("Failed to clear test accounts", zap.Error(err))
		}
		logger.Info("Test accounts cleared", zap.String("key", cfg.Registry.TestAccountsKey))
		return
	}

	addr, err := registry.LedgerAddress(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(os.Stderr, "ledger address not published")
	case err != nil:
		logger.Fatal("Failed to read ledger address", zap.Error(err))
	default:
		fmt.Printf("ledger %s\n", addr.Hex())
	}

	keys, err := registry.TestAccounts(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(os.Stderr, "no test accounts published")
	case err != nil:
		logger.Fatal("Failed to read test accounts", zap.Error(err))
	default:
		for _, k := range keys {
			fmt.Println(k)
		}
	}
}
