// Package curvemath replicates the FX pool's on-chain curve: the deviation fee,
// the alpha halt boundaries, the swap invariant and the fee-feedback trade solver.
//
// Every value is a signed 36-decimal fixed-point *big.Int (see package fixedpoint).
// Balances are indexed [reference asset, base asset].
package curvemath

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
)

const (
	// MaxRounds caps the trade solver's fixed-point iteration.
	MaxRounds = 32
)

var (
	// feeRateCap bounds the fee rate (margin/ideal * delta) before it is applied to the margin.
	feeRateCap = new(big.Int).Quo(fixedpoint.One(), big.NewInt(4))

	// maxInvariantDiff is the truncation slack tolerated by the swap invariant (-0.000001000000000000024).
	maxInvariantDiff, _ = new(big.Int).SetString("-1000000000000024000000000000000", 10)

	// convergenceUnit is the resolution at which successive candidates are compared (1e-23).
	convergenceUnit = fixedpoint.Pow10(13)

	half = new(big.Int).Quo(fixedpoint.One(), big.NewInt(2))

	// ErrLowerHalt is returned when a trade leaves an asset below its lower halt boundary.
	ErrLowerHalt = errors.New("CurveMath/lower-halt")
	// ErrUpperHalt is returned when a trade leaves an asset above its upper halt boundary.
	ErrUpperHalt = errors.New("CurveMath/upper-halt")
	// ErrSwapInvariantViolation is returned when the fee-adjusted liquidity regresses beyond tolerance.
	ErrSwapInvariantViolation = errors.New("CurveMath/swap-invariant-violation")
	// ErrSwapConvergenceFailed is returned when the solver does not stabilize within MaxRounds.
	ErrSwapConvergenceFailed = errors.New("CurveMath/swap-convergence-failed")
	// ErrInvalidLiquidity is returned when a liquidity state cannot be evaluated, e.g. a non-positive ideal share.
	ErrInvalidLiquidity = errors.New("CurveMath/invalid-liquidity")
	// ErrInvalidParameter is returned for missing or out-of-range curve parameters.
	ErrInvalidParameter = errors.New("CurveMath/invalid-parameter")
)

// Params are the pool's curve parameters, each a 36-decimal fixed-point fraction.
type Params struct {
	Alpha   *big.Int // halt-zone half width
	Beta    *big.Int // fee deadband
	Delta   *big.Int // fee slope
	Epsilon *big.Int // flat swap fee
	Lambda  *big.Int // damping applied when a trade lowers the aggregate fee
}

// Validate reports whether all parameters are present and non-negative, and
// whether alpha and beta stay below one.
func (p Params) Validate() error {
	named := []struct {
		name  string
		value *big.Int
	}{
		{"alpha", p.Alpha},
		{"beta", p.Beta},
		{"delta", p.Delta},
		{"epsilon", p.Epsilon},
		{"lambda", p.Lambda},
	}
	for _, n := range named {
		if n.value == nil {
			return fmt.Errorf("%w: %s is nil", ErrInvalidParameter, n.name)
		}
		if n.value.Sign() < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidParameter, n.name)
		}
	}
	if p.Alpha.Cmp(fixedpoint.One()) >= 0 {
		return fmt.Errorf("%w: alpha must be below 1", ErrInvalidParameter)
	}
	if p.Beta.Cmp(fixedpoint.One()) >= 0 {
		return fmt.Errorf("%w: beta must be below 1", ErrInvalidParameter)
	}
	return nil
}

// DefaultWeights returns the two-asset weight vector [0.5, 0.5].
func DefaultWeights() []*big.Int {
	return []*big.Int{new(big.Int).Set(half), new(big.Int).Set(half)}
}

// scratch holds reusable temporaries for fee evaluation and the trade loop.
// Instances are NOT safe for concurrent use and are managed by scratchPool.
type scratch struct {
	ideal     *big.Int
	threshold *big.Int
	margin    *big.Int
	rate      *big.Int
	factor    *big.Int
	fee       *big.Int

	prevAmount *big.Int
	prevTrunc  *big.Int
	curTrunc   *big.Int
	adjustment *big.Int
}

var scratchPool = sync.Pool{
	New: func() any {
		return &scratch{
			ideal:      new(big.Int),
			threshold:  new(big.Int),
			margin:     new(big.Int),
			rate:       new(big.Int),
			factor:     new(big.Int),
			fee:        new(big.Int),
			prevAmount: new(big.Int),
			prevTrunc:  new(big.Int),
			curTrunc:   new(big.Int),
			adjustment: new(big.Int),
		}
	},
}

func getScratch() *scratch {
	return scratchPool.Get().(*scratch)
}

func putScratch(s *scratch) {
	scratchPool.Put(s)
}
