package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/math"
)

// ErrConfigInvalid is returned when required configuration is missing or malformed
var ErrConfigInvalid = errors.New("invalid configuration")

// DefaultConfigFile is used when no config path is given
const DefaultConfigFile = "arbscan.yaml"

// Output drivers
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// MaxTopN bounds the number of results shown per cycle
const MaxTopN = 10

type Config struct {
	Network   NetworkConfig   `json:"network" yaml:"network"`
	Contracts ContractsConfig `json:"contracts" yaml:"contracts"`
	Tokens    TokensConfig    `json:"tokens" yaml:"tokens"`

	// Fee tier of the base/stable1 concentrated-liquidity pool (e.g. 500 = 0.05%)
	V3FeeTier uint32 `json:"v3_fee_tier" yaml:"v3_fee_tier"`
	// Coin index inside the stable-swap pool, keyed by token symbol
	StablePoolIndices map[string]int64 `json:"stable_pool_indices" yaml:"stable_pool_indices"`

	GasUnits  GasUnitsConfig  `json:"gas_units" yaml:"gas_units"`
	FlashLoan FlashLoanConfig `json:"flash_loan" yaml:"flash_loan"`

	// Trade sizes as decimal strings in base token units
	TradeSizes         []string `json:"trade_sizes" yaml:"trade_sizes"`
	PollIntervalMs     int64    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	DefaultGasPriceWei string   `json:"default_gas_price_wei" yaml:"default_gas_price_wei"`

	Output       OutputConfig    `json:"output" yaml:"output"`
	Report       ReportConfig    `json:"report" yaml:"report"`
	RPCRateLimit RateLimitConfig `json:"rpc_rate_limit" yaml:"rpc_rate_limit"`
	Server       ServerConfig    `json:"server" yaml:"server"`

	Debug bool `json:"debug" yaml:"debug"`
}

type NetworkConfig struct {
	RPCEndpoint string `json:"rpc_endpoint" yaml:"rpc_endpoint"`
	// Optional; checked against the endpoint at startup when non-zero
	ChainID uint64 `json:"chain_id" yaml:"chain_id"`
	// Gas costs are booked in the base token, which is only sound when the
	// base token is the chain's (wrapped) native gas token
	GasTokenIsBase bool `json:"gas_token_is_base" yaml:"gas_token_is_base"`
}

type ContractsConfig struct {
	V2Router   string `json:"v2_router" yaml:"v2_router"`
	V3Quoter   string `json:"v3_quoter" yaml:"v3_quoter"`
	StablePool string `json:"stable_pool" yaml:"stable_pool"`
}

type TokenConfig struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Address  string `json:"address" yaml:"address"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

type TokensConfig struct {
	Base         TokenConfig `json:"base" yaml:"base"`
	Stable1      TokenConfig `json:"stable1" yaml:"stable1"`
	Stable2      TokenConfig `json:"stable2" yaml:"stable2"`
	StableLegacy TokenConfig `json:"stable_legacy" yaml:"stable_legacy"`
}

type GasUnitsConfig struct {
	ConstantProduct uint64 `json:"constant_product" yaml:"constant_product"`
	Concentrated    uint64 `json:"concentrated" yaml:"concentrated"`
	StableSwap      uint64 `json:"stable_swap" yaml:"stable_swap"`
}

type FlashLoanConfig struct {
	// aave, balancer or custom
	Provider string `json:"provider" yaml:"provider"`
	// Overrides the provider preset when set
	FeeBps *uint32 `json:"fee_bps" yaml:"fee_bps"`
}

type OutputConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	Path   string `json:"path" yaml:"path"`
}

type ReportConfig struct {
	TopN int `json:"top_n" yaml:"top_n"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size"`
}

type ServerConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// TokenSet is the four tokens every route is built from
type TokenSet struct {
	Base         types.Token
	Stable1      types.Token
	Stable2      types.Token
	StableLegacy types.Token
}

// TradeSize is a configured size in both its display and smallest-unit form
type TradeSize struct {
	Label  string
	Amount *big.Int
}

func (c *Config) ValidateConfig() error {
	var problems []string

	if c.Network.RPCEndpoint == "" {
		problems = append(problems, "network.rpc_endpoint must be specified")
	}
	if !c.Network.GasTokenIsBase {
		problems = append(problems, "network.gas_token_is_base must be true: gas cost is booked in the base token")
	}

	for name, addr := range map[string]string{
		"contracts.v2_router":   c.Contracts.V2Router,
		"contracts.v3_quoter":   c.Contracts.V3Quoter,
		"contracts.stable_pool": c.Contracts.StablePool,
	} {
		if !common.IsHexAddress(addr) {
			problems = append(problems, fmt.Sprintf("%s is not a valid address: %q", name, addr))
		}
	}

	symbols := make(map[string]bool)
	// StableIndices is keyed by address, so addresses must be unique too
	addresses := make(map[common.Address]bool)
	for name, tok := range map[string]TokenConfig{
		"tokens.base":          c.Tokens.Base,
		"tokens.stable1":       c.Tokens.Stable1,
		"tokens.stable2":       c.Tokens.Stable2,
		"tokens.stable_legacy": c.Tokens.StableLegacy,
	} {
		if tok.Symbol == "" {
			problems = append(problems, name+".symbol must be specified")
		} else if symbols[tok.Symbol] {
			problems = append(problems, fmt.Sprintf("%s.symbol %q is used twice", name, tok.Symbol))
		}
		symbols[tok.Symbol] = true
		if !common.IsHexAddress(tok.Address) {
			problems = append(problems, fmt.Sprintf("%s.address is not a valid address: %q", name, tok.Address))
		} else {
			addr := common.HexToAddress(tok.Address)
			if addresses[addr] {
				problems = append(problems, fmt.Sprintf("%s.address %q is used twice", name, tok.Address))
			}
			addresses[addr] = true
		}
		if tok.Decimals == 0 || tok.Decimals > 36 {
			problems = append(problems, name+".decimals must be between 1 and 36")
		}
	}

	if c.V3FeeTier == 0 || c.V3FeeTier >= 1<<24 {
		problems = append(problems, "v3_fee_tier must be a positive uint24")
	}
	for _, tok := range []TokenConfig{c.Tokens.Stable1, c.Tokens.Stable2} {
		if _, ok := c.StablePoolIndices[tok.Symbol]; !ok {
			problems = append(problems, fmt.Sprintf("stable_pool_indices has no entry for %q", tok.Symbol))
		}
	}

	if c.GasUnits.ConstantProduct == 0 || c.GasUnits.Concentrated == 0 || c.GasUnits.StableSwap == 0 {
		problems = append(problems, "gas_units must be positive for every swap type")
	}

	switch c.FlashLoan.Provider {
	case "", "aave", "balancer":
	case "custom":
		if c.FlashLoan.FeeBps == nil {
			problems = append(problems, "flash_loan.fee_bps is required for the custom provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown flash_loan.provider %q", c.FlashLoan.Provider))
	}
	if c.FlashLoan.FeeBps != nil && *c.FlashLoan.FeeBps > math.BpsDenominator {
		problems = append(problems, "flash_loan.fee_bps cannot exceed 10000")
	}

	if len(c.TradeSizes) == 0 {
		problems = append(problems, "trade_sizes must list at least one size")
	}
	for _, size := range c.TradeSizes {
		if _, err := math.ParseUnits(size, c.Tokens.Base.Decimals); err != nil {
			problems = append(problems, fmt.Sprintf("trade size: %v", err))
		}
	}

	if c.PollIntervalMs <= 0 {
		problems = append(problems, "poll_interval_ms must be positive")
	}
	if c.DefaultGasPriceWei != "" {
		if v, ok := new(big.Int).SetString(c.DefaultGasPriceWei, 10); !ok || v.Sign() < 0 {
			problems = append(problems, fmt.Sprintf("default_gas_price_wei is not a non-negative integer: %q", c.DefaultGasPriceWei))
		}
	}

	switch c.Output.Driver {
	case DriverCSV, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("unknown output.driver %q", c.Output.Driver))
	}
	if c.Output.Path == "" {
		problems = append(problems, "output.path must be specified")
	}
	if c.Report.TopN <= 0 || c.Report.TopN > MaxTopN {
		problems = append(problems, fmt.Sprintf("report.top_n must be between 1 and %d", MaxTopN))
	}

	if err := c.RPCRateLimit.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("rpc rate limit error: %v", err))
	}
	if c.Server.Enabled && c.Server.ListenAddr == "" {
		problems = append(problems, "server.listen_addr must be specified when the server is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(problems, "; "))
	}

	return nil
}

// Validate checks the limiter settings. A zero rate disables throttling.
func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if r.RequestsPerSecond > 0 && r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}

	return nil
}

// PollInterval returns the delay between two cycles
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DefaultGasPrice returns the fallback gas price, or nil when none is configured
func (c *Config) DefaultGasPrice() *big.Int {
	if c.DefaultGasPriceWei == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(c.DefaultGasPriceWei, 10)
	if !ok {
		return nil
	}
	return v
}

// TokenSet converts the configured tokens
func (c *Config) TokenSet() TokenSet {
	return TokenSet{
		Base:         c.Tokens.Base.token(),
		Stable1:      c.Tokens.Stable1.token(),
		Stable2:      c.Tokens.Stable2.token(),
		StableLegacy: c.Tokens.StableLegacy.token(),
	}
}

func (t TokenConfig) token() types.Token {
	return types.Token{
		Symbol:   t.Symbol,
		Address:  common.HexToAddress(t.Address),
		Decimals: t.Decimals,
	}
}

// StableIndices maps token addresses to their stable-swap coin index
func (c *Config) StableIndices() map[common.Address]int64 {
	out := make(map[common.Address]int64, len(c.StablePoolIndices))
	for _, tok := range []TokenConfig{c.Tokens.Base, c.Tokens.Stable1, c.Tokens.Stable2, c.Tokens.StableLegacy} {
		if idx, ok := c.StablePoolIndices[tok.Symbol]; ok {
			out[common.HexToAddress(tok.Address)] = idx
		}
	}
	return out
}

// Sizes parses the configured trade sizes into base token smallest units
func (c *Config) Sizes() ([]TradeSize, error) {
	sizes := make([]TradeSize, 0, len(c.TradeSizes))
	for _, s := range c.TradeSizes {
		amount, err := math.ParseUnits(s, c.Tokens.Base.Decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: trade size: %v", ErrConfigInvalid, err)
		}
		sizes = append(sizes, TradeSize{Label: strings.TrimSpace(s), Amount: amount})
	}
	return sizes, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Driver == "" {
		c.Output.Driver = DriverCSV
	}
	if c.Output.Path == "" {
		if c.Output.Driver == DriverSQLite {
			c.Output.Path = "arbscan.db"
		} else {
			c.Output.Path = "arbscan_results.csv"
		}
	}
	if c.Report.TopN == 0 {
		c.Report.TopN = MaxTopN
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1:9464"
	}
}

// LoadConfig reads a YAML or JSON config file, applies .env and environment
// overrides and validates the result
func LoadConfig(cfgFile string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile == "" {
		cfgFile = GetEnvWithDefault(EnvConfigPath, DefaultConfigFile)
	}

	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfigInvalid, err)
	}

	cfg, err := Parse(raw, filepath.Ext(cfgFile))
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes config bytes; ext selects JSON for ".json" and YAML otherwise.
// Defaults are applied but the result is not validated.
func Parse(raw []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to decode config file: %v", ErrConfigInvalid, err)
		}
	default:
		if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to decode config file: %v", ErrConfigInvalid, err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}
