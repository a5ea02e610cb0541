// Package fixedpoint implements the signed 36-decimal fixed-point arithmetic
// used by the FX curve math. A value v is stored as the integer v * 10^36.
// All divisions truncate toward zero.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by every fixed-point value.
const Decimals = 36

var (
	ten = big.NewInt(10)

	// precomputed 10^n for n in [0, 2*Decimals]
	precomputedScales [2*Decimals + 1]*big.Int

	// ErrDivisionByZero is returned when a fixed-point division has a zero divisor.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	// ErrInvalidLiteral is returned when a decimal literal cannot be parsed.
	ErrInvalidLiteral = errors.New("fixedpoint: invalid decimal literal")
)

func init() {
	precomputedScales[0] = big.NewInt(1)
	for i := 1; i < len(precomputedScales); i++ {
		precomputedScales[i] = new(big.Int).Mul(precomputedScales[i-1], ten)
	}
}

// Pow10 returns 10^n. The returned value MUST NOT be modified.
func Pow10(n uint8) *big.Int {
	if int(n) < len(precomputedScales) {
		return precomputedScales[n]
	}
	// rare path
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

// One returns 10^36, the fixed-point representation of 1. Read-only.
func One() *big.Int {
	return precomputedScales[Decimals]
}

// New returns a fresh fixed-point value equal to the integer n.
func New(n int64) *big.Int {
	z := big.NewInt(n)
	return z.Mul(z, One())
}

// Mul sets z = x * y / 10^36, truncated toward zero, and returns z.
func Mul(z, x, y *big.Int) *big.Int {
	z.Mul(x, y)
	return z.Quo(z, One())
}

// Div sets z = x * 10^36 / y, truncated toward zero, and returns z.
func Div(z, x, y *big.Int) (*big.Int, error) {
	if y.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	z.Mul(x, One())
	return z.Quo(z, y), nil
}

// Truncate sets z = x / unit (integer quotient, truncated toward zero).
// Two values are considered equal at resolution unit when their truncations match.
func Truncate(z, x, unit *big.Int) *big.Int {
	return z.Quo(x, unit)
}

// ParseFixed converts a decimal literal such as "0.0004" to a fixed-point value.
// Digits past the given precision are dropped (truncated toward zero), then the
// value is lifted to the 36-decimal scale.
func ParseFixed(s string, precision uint8) (*big.Int, error) {
	if precision > Decimals {
		return nil, fmt.Errorf("%w: precision %d exceeds %d", ErrInvalidLiteral, precision, Decimals)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLiteral, s, err)
	}

	// d.Truncate keeps at most `precision` fractional digits
	scaled := d.Truncate(int32(precision)).Shift(int32(precision))
	z := new(big.Int).Set(scaled.BigInt())
	return z.Mul(z, Pow10(Decimals-precision)), nil
}

// Format renders a fixed-point value as a decimal string, mainly for logs.
func Format(x *big.Int) string {
	if x == nil {
		return "<nil>"
	}
	return decimal.NewFromBigInt(x, -Decimals).String()
}
