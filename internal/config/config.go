package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facility/internal/domain/role"
)

// Config holds the facility service configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Ledger       LedgerConfig       `yaml:"ledger"`
	Chain        ChainConfig        `yaml:"chain"`
	Registry     RegistryConfig     `yaml:"registry"`
	Events       EventsConfig       `yaml:"events"`
	TestAccounts TestAccountsConfig `yaml:"test_accounts"`
	Storage      StorageConfig      `yaml:"storage"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig maps API keys to the account each key acts as.
type AuthConfig struct {
	Accounts map[string]string `yaml:"accounts"` // api key -> 0x address
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LedgerConfig holds the deployment parameters of the ledger.
type LedgerConfig struct {
	Address         string            `yaml:"address"`
	Token           string            `yaml:"token"`
	Admin           string            `yaml:"admin"`
	Operator        string            `yaml:"operator"`
	Roles           map[string]string `yaml:"roles"`     // address -> "ADMIN,OPERATOR"
	GasPrice        string            `yaml:"gas_price"` // base units, decimal
	GasCost         string            `yaml:"gas_cost"`
	StrictBudget    *bool             `yaml:"strict_budget"` // default: true
	AdminMayOperate bool              `yaml:"admin_may_operate"`
}

// ChainConfig seeds the in-process token and native value balances.
type ChainConfig struct {
	TokenBalances  map[string]string `yaml:"token_balances"`  // address -> amount
	NativeBalances map[string]string `yaml:"native_balances"` // address -> amount
}

// RegistryConfig names the coordination keys.
type RegistryConfig struct {
	LedgerAddressKey string `yaml:"ledger_address_key"`
	TestAccountsKey  string `yaml:"test_accounts_key"`
	PublishOnStart   bool   `yaml:"publish_on_start"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Stream string `yaml:"stream"`
	MaxLen int64  `yaml:"max_len"` // 0 = uncapped
}

// TestAccountsConfig holds test account generation settings.
type TestAccountsConfig struct {
	Count   int    `yaml:"count"`
	Funding string `yaml:"funding"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Ledger.StrictBudget == nil {
		strict := true
		c.Ledger.StrictBudget = &strict
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "facility:"
	}
	if c.Events.Stream == "" {
		c.Events.Stream = c.Storage.KeyPrefix + "events"
	}
	if c.Registry.LedgerAddressKey == "" {
		c.Registry.LedgerAddressKey = c.Storage.KeyPrefix + "registry:address"
	}
	if c.Registry.TestAccountsKey == "" {
		c.Registry.TestAccountsKey = c.Storage.KeyPrefix + "registry:test-accounts"
	}
	if c.TestAccounts.Count <= 0 {
		c.TestAccounts.Count = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Events.MaxLen < 0 {
		return fmt.Errorf("events.max_len must not be negative, got %d", c.Events.MaxLen)
	}

	for name, s := range map[string]string{
		"ledger.address":  c.Ledger.Address,
		"ledger.token":    c.Ledger.Token,
		"ledger.operator": c.Ledger.Operator,
	} {
		if _, err := ParseAddress(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Ledger.Admin != "" {
		if _, err := ParseAddress(c.Ledger.Admin); err != nil {
			return fmt.Errorf("ledger.admin: %w", err)
		}
	}
	if _, err := c.Ledger.ParsedRoles(); err != nil {
		return err
	}
	if _, err := ParseAmount(c.Ledger.GasPrice); err != nil {
		return fmt.Errorf("ledger.gas_price: %w", err)
	}
	if _, err := ParseAmount(c.Ledger.GasCost); err != nil {
		return fmt.Errorf("ledger.gas_cost: %w", err)
	}
	if _, err := parseBalances(c.Chain.TokenBalances); err != nil {
		return fmt.Errorf("chain.token_balances: %w", err)
	}
	if _, err := parseBalances(c.Chain.NativeBalances); err != nil {
		return fmt.Errorf("chain.native_balances: %w", err)
	}
	if c.TestAccounts.Funding != "" {
		if _, err := ParseAmount(c.TestAccounts.Funding); err != nil {
			return fmt.Errorf("test_accounts.funding: %w", err)
		}
	}
	for key, addr := range c.Auth.Accounts {
		if key == "" {
			return fmt.Errorf("auth.accounts: empty api key")
		}
		if _, err := ParseAddress(addr); err != nil {
			return fmt.Errorf("auth.accounts: %w", err)
		}
	}
	return nil
}

// ParsedRoles returns the extra role grants keyed by account.
func (l LedgerConfig) ParsedRoles() (map[common.Address]role.Set, error) {
	out := make(map[common.Address]role.Set, len(l.Roles))
	for addr, caps := range l.Roles {
		a, err := ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("ledger.roles: %w", err)
		}
		set, err := role.ParseSet(caps)
		if err != nil {
			return nil, fmt.Errorf("ledger.roles.%s: %w", addr, err)
		}
		out[a] = set
	}
	return out, nil
}

// ParsedTokenBalances returns the genesis token balances.
func (c ChainConfig) ParsedTokenBalances() (map[common.Address]*uint256.Int, error) {
	return parseBalances(c.TokenBalances)
}

// ParsedNativeBalances returns the genesis native balances.
func (c ChainConfig) ParsedNativeBalances() (map[common.Address]*uint256.Int, error) {
	return parseBalances(c.NativeBalances)
}

// ParsedAccounts returns the API key to account mapping.
func (a AuthConfig) ParsedAccounts() map[string]common.Address {
	out := make(map[string]common.Address, len(a.Accounts))
	for key, addr := range a.Accounts {
		out[key] = common.HexToAddress(addr)
	}
	return out
}

// ParseAddress parses a 0x-prefixed hex account. The zero address is rejected.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	a := common.HexToAddress(s)
	if a == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address")
	}
	return a, nil
}

// ParseAmount parses a non-negative decimal amount of base units.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func parseBalances(in map[string]string) (map[common.Address]*uint256.Int, error) {
	out := make(map[common.Address]*uint256.Int, len(in))
	for addr, amount := range in {
		a, err := ParseAddress(addr)
		if err != nil {
			return nil, err
		}
		v, err := ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", addr, err)
		}
		out[a] = v
	}
	return out, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
