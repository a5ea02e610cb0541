package config

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the fxquote configuration: a pool snapshot and the quotes to run against it.
type Config struct {
	LogLevel string         `yaml:"logLevel"` // debug, info, warn, error
	Pools    []PoolConfig   `yaml:"pools"`
	Quotes   []QuoteRequest `yaml:"quotes"`
}

// PoolConfig describes one FX pool.
type PoolConfig struct {
	ID             uint64        `yaml:"id"`
	Address        string        `yaml:"address"`
	ReferenceToken string        `yaml:"referenceToken"`
	Alpha          string        `yaml:"alpha"`
	Beta           string        `yaml:"beta"`
	Delta          string        `yaml:"delta"`
	Epsilon        string        `yaml:"epsilon"`
	Lambda         string        `yaml:"lambda"`
	Tokens         []TokenConfig `yaml:"tokens"`
}

// TokenConfig describes one pool asset. Balance is in whole token units ("1000000.5");
// FXPrice is the raw oracle integer.
type TokenConfig struct {
	Address          string `yaml:"address"`
	Symbol           string `yaml:"symbol"`
	Decimals         uint8  `yaml:"decimals"`
	Balance          string `yaml:"balance"`
	FXPrice          string `yaml:"fxPrice"`
	FXOracleDecimals *uint8 `yaml:"fxOracleDecimals"`
}

// QuoteRequest is one batch of amounts to quote. Amounts are in whole token units of
// tokenIn for side "sell" and of tokenOut for side "buy".
type QuoteRequest struct {
	Pool     string   `yaml:"pool"`
	TokenIn  string   `yaml:"tokenIn"`
	TokenOut string   `yaml:"tokenOut"`
	Side     string   `yaml:"side"`
	Amounts  []string `yaml:"amounts"`
}

// Request is a QuoteRequest resolved against the configured pools.
type Request struct {
	Pool     common.Address
	TokenIn  TokenConfig
	TokenOut TokenConfig
	Side     calculator.SwapSide
	Amounts  []*big.Int
}

// LoadConfig reads, defaults and validates the configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	for i := range c.Quotes {
		if c.Quotes[i].Side == "" {
			c.Quotes[i].Side = "sell"
		}
	}
}

// Validate checks addresses, numbers and cross references.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}

	ids := make(map[uint64]bool, len(c.Pools))
	for i, p := range c.Pools {
		if ids[p.ID] {
			return fmt.Errorf("pools[%d]: duplicate id %d", i, p.ID)
		}
		ids[p.ID] = true
	}

	for i, p := range c.Pools {
		if !common.IsHexAddress(p.Address) {
			return fmt.Errorf("pools[%d].address %q is not a hex address", i, p.Address)
		}
		if !common.IsHexAddress(p.ReferenceToken) {
			return fmt.Errorf("pools[%d].referenceToken %q is not a hex address", i, p.ReferenceToken)
		}
		if len(p.Tokens) != 2 {
			return fmt.Errorf("pools[%d]: expected 2 tokens, got %d", i, len(p.Tokens))
		}
		for j, t := range p.Tokens {
			if !common.IsHexAddress(t.Address) {
				return fmt.Errorf("pools[%d].tokens[%d].address %q is not a hex address", i, j, t.Address)
			}
			if _, err := toRaw(t.Balance, t.Decimals); err != nil {
				return fmt.Errorf("pools[%d].tokens[%d].balance: %w", i, j, err)
			}
		}
	}

	_, err := c.Requests()
	return err
}

// Level returns the configured slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("logLevel: %w", err)
	}
	return level, nil
}

// ToPools converts the configured pools into a snapshot.
func (c *Config) ToPools() ([]fxpool.Pool, error) {
	pools := make([]fxpool.Pool, 0, len(c.Pools))
	for _, p := range c.Pools {
		pool := fxpool.Pool{
			ID:             p.ID,
			Address:        common.HexToAddress(p.Address),
			ReferenceToken: common.HexToAddress(p.ReferenceToken),
			Alpha:          p.Alpha,
			Beta:           p.Beta,
			Delta:          p.Delta,
			Epsilon:        p.Epsilon,
			Lambda:         p.Lambda,
			Tokens:         make([]fxpool.Token, 0, len(p.Tokens)),
			Balances:       make(map[common.Address]*big.Int, len(p.Tokens)),
		}
		for _, t := range p.Tokens {
			addr := common.HexToAddress(t.Address)
			balance, err := toRaw(t.Balance, t.Decimals)
			if err != nil {
				return nil, fmt.Errorf("pool %d token %s balance: %w", p.ID, t.Address, err)
			}
			pool.Tokens = append(pool.Tokens, fxpool.Token{
				Address:          addr,
				Decimals:         t.Decimals,
				LatestFXPrice:    t.FXPrice,
				FXOracleDecimals: t.FXOracleDecimals,
			})
			pool.Balances[addr] = balance
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// Requests resolves the configured quotes against the configured pools.
func (c *Config) Requests() ([]Request, error) {
	requests := make([]Request, 0, len(c.Quotes))
	for i, q := range c.Quotes {
		pool, ok := c.pool(q.Pool)
		if !ok {
			return nil, fmt.Errorf("quotes[%d]: unknown pool %q", i, q.Pool)
		}
		tokenIn, ok := pool.token(q.TokenIn)
		if !ok {
			return nil, fmt.Errorf("quotes[%d]: tokenIn %q is not in pool %d", i, q.TokenIn, pool.ID)
		}
		tokenOut, ok := pool.token(q.TokenOut)
		if !ok {
			return nil, fmt.Errorf("quotes[%d]: tokenOut %q is not in pool %d", i, q.TokenOut, pool.ID)
		}

		req := Request{
			Pool:     common.HexToAddress(pool.Address),
			TokenIn:  tokenIn,
			TokenOut: tokenOut,
			Amounts:  make([]*big.Int, 0, len(q.Amounts)),
		}
		amountDecimals := tokenIn.Decimals
		switch strings.ToLower(q.Side) {
		case "sell":
			req.Side = calculator.SwapSideSell
		case "buy":
			req.Side = calculator.SwapSideBuy
			amountDecimals = tokenOut.Decimals
		default:
			return nil, fmt.Errorf("quotes[%d].side %q must be sell or buy", i, q.Side)
		}

		for j, a := range q.Amounts {
			amount, err := toRaw(a, amountDecimals)
			if err != nil {
				return nil, fmt.Errorf("quotes[%d].amounts[%d]: %w", i, j, err)
			}
			req.Amounts = append(req.Amounts, amount)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (c *Config) pool(address string) (PoolConfig, bool) {
	if !common.IsHexAddress(address) {
		return PoolConfig{}, false
	}
	want := common.HexToAddress(address)
	for _, p := range c.Pools {
		if common.HexToAddress(p.Address) == want {
			return p, true
		}
	}
	return PoolConfig{}, false
}

// token matches by address or, case-insensitively, by symbol.
func (p PoolConfig) token(ref string) (TokenConfig, bool) {
	for _, t := range p.Tokens {
		if common.IsHexAddress(ref) && common.HexToAddress(ref) == common.HexToAddress(t.Address) {
			return t, true
		}
		if t.Symbol != "" && strings.EqualFold(t.Symbol, ref) {
			return t, true
		}
	}
	return TokenConfig{}, false
}

// toRaw converts a whole-unit decimal string to raw token units, truncating
// digits beyond the token's precision.
func toRaw(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// FromRaw formats raw token units as a whole-unit decimal string.
func FromRaw(amount *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
