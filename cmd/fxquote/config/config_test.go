package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
logLevel: debug
pools:
  - id: 7
    address: "0x55bdf7f0223e8b1d509141a8d852dd86b3553d59"
    referenceToken: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
    alpha: "0.02"
    beta: "0.005"
    delta: "0.5"
    epsilon: "0.0004"
    lambda: "0.3"
    tokens:
      - address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
        symbol: USDC
        decimals: 6
        balance: "1000000.1234567"
        fxPrice: "100000000"
      - address: "0x1a7e4e63778b4f12a199c062f3efdd288afcbce8"
        symbol: EURX
        decimals: 18
        balance: "1000000"
        fxPrice: "108000000"
        fxOracleDecimals: 8
quotes:
  - pool: "0x55bdf7f0223e8b1d509141a8d852dd86b3553d59"
    tokenIn: usdc
    tokenOut: "0x1a7e4e63778b4f12a199c062f3efdd288afcbce8"
    amounts: ["1000", "0.5"]
  - pool: "0x55bdf7f0223e8b1d509141a8d852dd86b3553d59"
    tokenIn: EURX
    tokenOut: USDC
    side: buy
    amounts: ["250.25"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	pools, err := cfg.ToPools()
	require.NoError(t, err)
	require.Len(t, pools, 1)

	usdc := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	eurx := common.HexToAddress("0x1a7e4e63778b4f12a199c062f3efdd288afcbce8")
	pool := pools[0]
	assert.Equal(t, uint64(7), pool.ID)
	assert.Equal(t, usdc, pool.ReferenceToken)
	assert.Equal(t, "1000000123456", pool.Balances[usdc].String(), "digits past the token precision are truncated")
	assert.Equal(t, "1000000000000000000000000", pool.Balances[eurx].String())
	assert.Nil(t, pool.Tokens[0].FXOracleDecimals)
	require.NotNil(t, pool.Tokens[1].FXOracleDecimals)
	assert.Equal(t, uint8(8), *pool.Tokens[1].FXOracleDecimals)
	assert.Equal(t, "108000000", pool.Tokens[1].LatestFXPrice)

	requests, err := cfg.Requests()
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, calculator.SwapSideSell, requests[0].Side)
	assert.Equal(t, "USDC", requests[0].TokenIn.Symbol)
	assert.Equal(t, "1000000000", requests[0].Amounts[0].String())
	assert.Equal(t, "500000", requests[0].Amounts[1].String())

	assert.Equal(t, calculator.SwapSideBuy, requests[1].Side)
	assert.Equal(t, "EURX", requests[1].TokenIn.Symbol)
	assert.Equal(t, "250250000", requests[1].Amounts[0].String(), "buy amounts use tokenOut decimals")
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := &Config{Quotes: []QuoteRequest{{}}}
	cfg.setDefaults()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sell", cfg.Quotes[0].Side)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		old     string
		new     string
		wantErr string
	}{
		{"bad pool address", `address: "0x55bdf7f0223e8b1d509141a8d852dd86b3553d59"`, `address: "pool"`, "is not a hex address"},
		{"bad balance", `balance: "1000000"`, `balance: "lots"`, "invalid amount"},
		{"negative amount", `["250.25"]`, `["-1"]`, "negative amount"},
		{"unknown side", `side: buy`, `side: hold`, "must be sell or buy"},
		{"unknown token", `tokenIn: EURX`, `tokenIn: DAI`, "is not in pool"},
		{"bad log level", `logLevel: debug`, `logLevel: loud`, "logLevel"},
		{"duplicate pool", `pools:`, "pools:\n  - id: 7\n    address: \"0x0000000000000000000000000000000000000001\"", "duplicate id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			content := replaceOnce(t, validConfig, tc.old, tc.new)
			_, err := LoadConfig(writeConfig(t, content))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeConfig(t, "pools: ["))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestFromRaw(t *testing.T) {
	assert.Equal(t, "999.6", FromRaw(bigFromString(t, "999600000000000000000"), 18))
	assert.Equal(t, "0.000001", FromRaw(bigFromString(t, "1"), 6))
	assert.Equal(t, "0", FromRaw(bigFromString(t, "0"), 6))
}
