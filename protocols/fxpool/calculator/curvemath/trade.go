package curvemath

import (
	"fmt"
	"math/big"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
)

// LiquidityState is the solver's working state. Balances are numeraire amounts
// indexed consistently with the weight vector.
type LiquidityState struct {
	OldGlobalLiquidity *big.Int
	NewGlobalLiquidity *big.Int
	OldBalances        []*big.Int
	NewBalances        []*big.Int
}

// Clone returns a deep copy of the state.
func (l LiquidityState) Clone() LiquidityState {
	return LiquidityState{
		OldGlobalLiquidity: cloneBig(l.OldGlobalLiquidity),
		NewGlobalLiquidity: cloneBig(l.NewGlobalLiquidity),
		OldBalances:        cloneBigs(l.OldBalances),
		NewBalances:        cloneBigs(l.NewBalances),
	}
}

func (l LiquidityState) validate(outputIndex int, weights []*big.Int) error {
	if l.OldGlobalLiquidity == nil || l.NewGlobalLiquidity == nil {
		return fmt.Errorf("%w: global liquidity is nil", ErrInvalidLiquidity)
	}
	if len(l.OldBalances) != len(weights) || len(l.NewBalances) != len(weights) {
		return fmt.Errorf("%w: expected %d balances", ErrInvalidLiquidity, len(weights))
	}
	for i := range weights {
		if l.OldBalances[i] == nil || l.NewBalances[i] == nil || weights[i] == nil {
			return fmt.Errorf("%w: nil entry at index %d", ErrInvalidLiquidity, i)
		}
	}
	if outputIndex < 0 || outputIndex >= len(weights) {
		return fmt.Errorf("%w: output index %d out of range", ErrInvalidLiquidity, outputIndex)
	}
	return nil
}

// TradeResult is an accepted trade.
type TradeResult struct {
	// Amount is the solved counter-amount in numeraire. It is negative for a
	// given-in trade (the amount leaving the pool) and positive for a given-out
	// trade (the amount entering it).
	Amount             *big.Int
	NewGlobalLiquidity *big.Int
	NewBalances        []*big.Int
	// Omega and Psi are the aggregate fees before and after the trade.
	Omega  *big.Int
	Psi    *big.Int
	Rounds int
}

// CalculateTrade solves for the counter-amount of a trade of size target
// (positive for given-in, negative for given-out) whose counter-amount lands on
// balance outputIndex. The caller's state is not modified.
//
// Each round re-evaluates the aggregate fee psi on the candidate balances and
// sets the candidate to -(target + adjustment), where adjustment is omega - psi
// when the fee grew and lambda*(omega - psi) otherwise. The loop stops when two
// successive candidates agree at 1e-23 resolution; the converged state must then
// pass EnforceHalts and EnforceSwapInvariant.
func CalculateTrade(state LiquidityState, target *big.Int, outputIndex int, params Params, weights []*big.Int) (*TradeResult, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrInvalidLiquidity)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := state.validate(outputIndex, weights); err != nil {
		return nil, err
	}

	s := getScratch()
	defer putScratch(s)
	return s.calculateTrade(state.Clone(), target, outputIndex, params, weights)
}

func (s *scratch) calculateTrade(work LiquidityState, target *big.Int, outputIndex int, params Params, weights []*big.Int) (*TradeResult, error) {
	omega := new(big.Int)
	if err := s.aggregateFee(omega, work.OldGlobalLiquidity, work.OldBalances, params.Beta, params.Delta, weights); err != nil {
		return nil, err
	}

	psi := new(big.Int)
	output := new(big.Int).Neg(target)

	for round := 0; round < MaxRounds; round++ {
		if err := s.aggregateFee(psi, work.NewGlobalLiquidity, work.NewBalances, params.Beta, params.Delta, weights); err != nil {
			return nil, err
		}

		s.prevAmount.Set(output)

		s.adjustment.Sub(omega, psi)
		if omega.Cmp(psi) >= 0 {
			fixedpoint.Mul(s.adjustment, params.Lambda, s.adjustment)
		}
		output.Add(target, s.adjustment)
		output.Neg(output)

		work.NewGlobalLiquidity.Add(work.OldGlobalLiquidity, target)
		work.NewGlobalLiquidity.Add(work.NewGlobalLiquidity, output)
		work.NewBalances[outputIndex].Add(work.OldBalances[outputIndex], output)

		fixedpoint.Truncate(s.curTrunc, output, convergenceUnit)
		fixedpoint.Truncate(s.prevTrunc, s.prevAmount, convergenceUnit)
		if s.curTrunc.Cmp(s.prevTrunc) != 0 {
			continue
		}

		if err := EnforceHalts(work.OldGlobalLiquidity, work.NewGlobalLiquidity, work.OldBalances, work.NewBalances, weights, params.Alpha); err != nil {
			return nil, err
		}
		if err := EnforceSwapInvariant(work.OldGlobalLiquidity, omega, work.NewGlobalLiquidity, psi); err != nil {
			return nil, err
		}

		return &TradeResult{
			Amount:             output,
			NewGlobalLiquidity: work.NewGlobalLiquidity,
			NewBalances:        work.NewBalances,
			Omega:              omega,
			Psi:                psi,
			Rounds:             round + 1,
		}, nil
	}

	return nil, fmt.Errorf("%w: no agreement after %d rounds", ErrSwapConvergenceFailed, MaxRounds)
}

func cloneBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func cloneBigs(xs []*big.Int) []*big.Int {
	if xs == nil {
		return nil
	}
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = cloneBig(x)
	}
	return out
}
