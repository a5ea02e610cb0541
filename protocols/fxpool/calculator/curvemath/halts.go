package curvemath

import (
	"fmt"
	"math/big"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
)

// EnforceHalts rejects a post-trade state in which any asset sits outside
// [ideal*(1-alpha), ideal*(1+alpha)] of the new global liquidity.
//
// A breach is always rejected. The old-state boundary is only used to tell
// whether the trade entered the halt zone or pushed further into it.
func EnforceHalts(oldGlobalLiquidity, newGlobalLiquidity *big.Int, oldBalances, newBalances []*big.Int, weights []*big.Int, alpha *big.Int) error {
	if len(oldBalances) != len(newBalances) || len(newBalances) != len(weights) {
		return fmt.Errorf("%w: mismatched balance and weight vectors", ErrInvalidLiquidity)
	}

	upperAlpha := new(big.Int).Add(fixedpoint.One(), alpha)
	lowerAlpha := new(big.Int).Sub(fixedpoint.One(), alpha)
	newIdeal := new(big.Int)
	newHalt := new(big.Int)
	oldHalt := new(big.Int)

	for i := range newBalances {
		fixedpoint.Mul(newIdeal, newGlobalLiquidity, weights[i])

		if newBalances[i].Cmp(newIdeal) > 0 {
			fixedpoint.Mul(newHalt, newIdeal, upperAlpha)
			if newBalances[i].Cmp(newHalt) <= 0 {
				continue
			}
			fixedpoint.Mul(oldHalt, oldGlobalLiquidity, weights[i])
			fixedpoint.Mul(oldHalt, oldHalt, upperAlpha)
			return fmt.Errorf("%w: asset %d %s", ErrUpperHalt, i,
				haltReason(newBalances[i], newHalt, oldBalances[i], oldHalt))
		}

		fixedpoint.Mul(newHalt, newIdeal, lowerAlpha)
		if newBalances[i].Cmp(newHalt) >= 0 {
			continue
		}
		fixedpoint.Mul(oldHalt, oldGlobalLiquidity, weights[i])
		fixedpoint.Mul(oldHalt, oldHalt, lowerAlpha)
		return fmt.Errorf("%w: asset %d %s", ErrLowerHalt, i,
			haltReason(newHalt, newBalances[i], oldHalt, oldBalances[i]))
	}
	return nil
}

// haltReason describes a breach given (outer, bound) pairs for the new and old
// state, where outer - bound is the distance past the boundary.
func haltReason(newOuter, newBound, oldOuter, oldBound *big.Int) string {
	oldExcess := new(big.Int).Sub(oldOuter, oldBound)
	if oldExcess.Sign() < 0 {
		return "entered the halt zone"
	}
	newExcess := new(big.Int).Sub(newOuter, newBound)
	if newExcess.Cmp(oldExcess) > 0 {
		return fmt.Sprintf("widened the halt breach from %s to %s", fixedpoint.Format(oldExcess), fixedpoint.Format(newExcess))
	}
	return "remains in the halt zone"
}

// EnforceSwapInvariant checks that (newGLiq - psi) - (oldGLiq - omega) is positive
// or no lower than the truncation tolerance.
func EnforceSwapInvariant(oldGlobalLiquidity, omega, newGlobalLiquidity, psi *big.Int) error {
	diff := new(big.Int).Sub(newGlobalLiquidity, psi)
	diff.Sub(diff, oldGlobalLiquidity)
	diff.Add(diff, omega)

	if diff.Sign() > 0 || diff.Cmp(maxInvariantDiff) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: utility dropped by %s", ErrSwapInvariantViolation, fixedpoint.Format(new(big.Int).Neg(diff)))
}
