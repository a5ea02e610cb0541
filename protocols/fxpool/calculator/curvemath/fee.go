package curvemath

import (
	"fmt"
	"math/big"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
)

// IdealShare returns globalLiquidity * weight.
func IdealShare(globalLiquidity, weight *big.Int) *big.Int {
	return fixedpoint.Mul(new(big.Int), globalLiquidity, weight)
}

// AssetFee returns the deviation fee of a single asset. It is zero inside the
// deadband [ideal*(1-beta), ideal*(1+beta)] and otherwise
//
//	min(margin/ideal * delta, 0.25) * margin
//
// where margin is the distance from the nearest deadband edge.
func AssetFee(balance, ideal, beta, delta *big.Int) (*big.Int, error) {
	s := getScratch()
	defer putScratch(s)

	fee := new(big.Int)
	if err := s.assetFee(fee, balance, ideal, beta, delta); err != nil {
		return nil, err
	}
	return fee, nil
}

// AggregateFee sums AssetFee over every asset, with ideal_i = globalLiquidity * weight_i.
func AggregateFee(globalLiquidity *big.Int, balances []*big.Int, beta, delta *big.Int, weights []*big.Int) (*big.Int, error) {
	s := getScratch()
	defer putScratch(s)

	total := new(big.Int)
	if err := s.aggregateFee(total, globalLiquidity, balances, beta, delta, weights); err != nil {
		return nil, err
	}
	return total, nil
}

// aggregateFee writes the summed fee into dst. dst must not alias any scratch field.
func (s *scratch) aggregateFee(dst, globalLiquidity *big.Int, balances []*big.Int, beta, delta *big.Int, weights []*big.Int) error {
	if len(balances) != len(weights) {
		return fmt.Errorf("%w: %d balances for %d weights", ErrInvalidLiquidity, len(balances), len(weights))
	}

	dst.SetInt64(0)
	for i := range balances {
		fixedpoint.Mul(s.ideal, globalLiquidity, weights[i])
		if err := s.assetFee(s.fee, balances[i], s.ideal, beta, delta); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
		dst.Add(dst, s.fee)
	}
	return nil
}

// assetFee writes the fee of one asset into dst. ideal may alias s.ideal; dst must not
// alias threshold, margin or rate.
func (s *scratch) assetFee(dst, balance, ideal, beta, delta *big.Int) error {
	if ideal.Sign() <= 0 {
		return fmt.Errorf("%w: ideal share %s is not positive", ErrInvalidLiquidity, ideal)
	}

	if balance.Cmp(ideal) < 0 {
		s.factor.Sub(fixedpoint.One(), beta)
		fixedpoint.Mul(s.threshold, ideal, s.factor)
		if balance.Cmp(s.threshold) >= 0 {
			dst.SetInt64(0)
			return nil
		}
		s.margin.Sub(s.threshold, balance)
	} else {
		s.factor.Add(fixedpoint.One(), beta)
		fixedpoint.Mul(s.threshold, ideal, s.factor)
		if balance.Cmp(s.threshold) <= 0 {
			dst.SetInt64(0)
			return nil
		}
		s.margin.Sub(balance, s.threshold)
	}

	// rate = margin / ideal * delta, capped
	if _, err := fixedpoint.Div(s.rate, s.margin, ideal); err != nil {
		return err
	}
	fixedpoint.Mul(s.rate, s.rate, delta)
	if s.rate.Cmp(feeRateCap) > 0 {
		s.rate.Set(feeRateCap)
	}

	fixedpoint.Mul(dst, s.rate, s.margin)
	return nil
}
