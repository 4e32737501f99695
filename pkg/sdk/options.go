package facility

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Default deployment addresses of the embedded ledger and its token.
var (
	DefaultLedgerAddress = common.HexToAddress("0x000000000000000000000000000000000000fAc1")
	DefaultTokenAddress  = common.HexToAddress("0x00000000000000000000000000000000000070c3")
)

type clientConfig struct {
	addrs    []string
	password string

	keyPrefix    string
	eventStream  string
	eventsMaxLen int64

	ledger          common.Address
	token           common.Address
	admin           common.Address
	operator        common.Address
	gasPrice        *uint256.Int
	gasCost         *uint256.Int
	permissive      bool
	adminMayOperate bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		keyPrefix: "facility:",
		ledger:    DefaultLedgerAddress,
		token:     DefaultTokenAddress,
		gasPrice:  new(uint256.Int),
		gasCost:   new(uint256.Int),
	}
}

// WithRedis persists ledger state to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "facility:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEventStream appends committed events to the given stream, trimmed to roughly
// maxLen entries (0 = uncapped). Requires WithRedis.
func WithEventStream(stream string, maxLen int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.eventStream = stream
		c.eventsMaxLen = maxLen
	})
}

// WithAddresses sets the ledger's own account and the token address.
func WithAddresses(ledger, token common.Address) Option {
	return optionFunc(func(c *clientConfig) {
		c.ledger = ledger
		c.token = token
	})
}

// WithAdmin sets the initial ADMIN.
func WithAdmin(admin common.Address) Option {
	return optionFunc(func(c *clientConfig) {
		c.admin = admin
	})
}

// WithOperator sets the initial OPERATOR, the receiver of forwarded deposits.
func WithOperator(operator common.Address) Option {
	return optionFunc(func(c *clientConfig) {
		c.operator = operator
	})
}

// WithGas sets the per-update budget as gas price times gas cost. Default: zero.
func WithGas(price, cost *uint256.Int) Option {
	return optionFunc(func(c *clientConfig) {
		c.gasPrice = price
		c.gasCost = cost
	})
}

// WithPermissiveBudget lets updates proceed for beneficiaries without unused budget.
func WithPermissiveBudget() Option {
	return optionFunc(func(c *clientConfig) {
		c.permissive = true
	})
}

// WithAdminMayOperate lets ADMIN holders pass OPERATOR checks.
func WithAdminMayOperate() Option {
	return optionFunc(func(c *clientConfig) {
		c.adminMayOperate = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
