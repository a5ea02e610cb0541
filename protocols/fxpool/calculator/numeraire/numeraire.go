// Package numeraire converts raw token amounts to and from the 36-decimal
// numeraire unit using an oracle exchange rate.
package numeraire

import (
	"errors"
	"math/big"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
)

const (
	// DefaultRateDecimals is the decimal width of an oracle rate when the pool does not specify one.
	DefaultRateDecimals uint8 = 8

	// MaxCombinedDecimals is the largest tokenDecimals + rateDecimals for which one raw
	// unit is worth at least one numeraire unit, so FromNumeraire(ToNumeraire(x)) stays
	// within one unit of x. Wider combinations lose raw units to truncation.
	MaxCombinedDecimals = fixedpoint.Decimals
)

// ErrMissingPriceData is returned when an oracle rate is absent or zero.
var ErrMissingPriceData = errors.New("missing oracle price data")

// ToNumeraire converts a raw token amount into numeraire:
//
//	amount * rate * 10^36 / (10^rateDecimals * 10^tokenDecimals)
//
// The division is performed once, at the end, so the only loss is the final truncation.
// Callers keep tokenDecimals + rateDecimals within MaxCombinedDecimals.
func ToNumeraire(amount *big.Int, tokenDecimals uint8, rate *big.Int, rateDecimals uint8) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrMissingPriceData
	}

	z := new(big.Int).Mul(amount, rate)
	z.Mul(z, fixedpoint.One())

	denominator := new(big.Int).Mul(fixedpoint.Pow10(rateDecimals), fixedpoint.Pow10(tokenDecimals))
	return z.Quo(z, denominator), nil
}

// FromNumeraire converts a numeraire amount back into raw token units. It is the
// left inverse of ToNumeraire up to one unit of truncation.
func FromNumeraire(amount *big.Int, tokenDecimals uint8, rate *big.Int, rateDecimals uint8) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrMissingPriceData
	}

	z := new(big.Int).Mul(amount, fixedpoint.Pow10(tokenDecimals))
	z.Mul(z, fixedpoint.Pow10(rateDecimals))

	denominator := new(big.Int).Mul(rate, fixedpoint.One())
	return z.Quo(z, denominator), nil
}
