package fxpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is one asset of an FX pool together with its latest oracle quote.
type Token struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	// LatestFXPrice is the oracle rate as a base-10 integer string. Empty until the oracle publishes.
	LatestFXPrice string `json:"latestFXPrice,omitempty"`
	// FXOracleDecimals is the decimal width of LatestFXPrice; nil means 8.
	FXOracleDecimals *uint8 `json:"fxOracleDecimals,omitempty"`
}

// Pool is a cached FX pool: metadata, curve parameters and the latest balance snapshot.
type Pool struct {
	ID      uint64         `json:"id"`
	Address common.Address `json:"address"`
	// ReferenceToken is the pool's numeraire-side asset (usually the USD stablecoin).
	ReferenceToken common.Address `json:"referenceToken"`
	Tokens         []Token        `json:"tokens"`

	// Curve parameters as decimal literals, e.g. "0.0004".
	Alpha   string `json:"alpha"`
	Beta    string `json:"beta"`
	Delta   string `json:"delta"`
	Epsilon string `json:"epsilon"`
	Lambda  string `json:"lambda"`

	// Balances are raw on-chain token balances keyed by token address.
	Balances map[common.Address]*big.Int `json:"balances"`
}

// Token returns the pool token with the given address.
func (p Pool) Token(address common.Address) (Token, bool) {
	for _, t := range p.Tokens {
		if t.Address == address {
			return t, true
		}
	}
	return Token{}, false
}
