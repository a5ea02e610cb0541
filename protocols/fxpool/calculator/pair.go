package calculator

import (
	"fmt"
	"math/big"

	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/curvemath"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/numeraire"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// parameterPrecision is the number of fractional digits the pool contract stores for curve parameters.
const parameterPrecision = 18

// TokenQuote is one side of a swap with its oracle quote.
type TokenQuote struct {
	Address      common.Address
	Decimals     uint8
	Rate         *big.Int
	RateDecimals uint8
}

// ToNumeraire converts a raw amount of this token into numeraire.
func (q TokenQuote) ToNumeraire(amount *big.Int) (*big.Int, error) {
	return numeraire.ToNumeraire(amount, q.Decimals, q.Rate, q.RateDecimals)
}

// FromNumeraire converts a numeraire amount into raw units of this token.
func (q TokenQuote) FromNumeraire(amount *big.Int) (*big.Int, error) {
	return numeraire.FromNumeraire(amount, q.Decimals, q.Rate, q.RateDecimals)
}

// PairData is the per-swap snapshot of one ordered token pair of an FX pool.
// Balances and rates must come from the same pool snapshot.
type PairData struct {
	PoolID     uint64
	TokenIn    TokenQuote
	TokenOut   TokenQuote
	BalanceIn  *big.Int
	BalanceOut *big.Int
	Params     curvemath.Params
	// TokenInIsReference is true when tokenIn is the pool's reference asset.
	TokenInIsReference bool
}

// IsIdentity reports whether the pair swaps a token for itself.
func (p *PairData) IsIdentity() bool {
	return p.TokenIn.Address == p.TokenOut.Address
}

// validate rejects pairs that were not fully assembled.
func (p *PairData) validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil pair", ErrInvalidState)
	}
	if p.BalanceIn == nil || p.BalanceOut == nil {
		return fmt.Errorf("%w: pool %d: nil balance", ErrInvalidState, p.PoolID)
	}
	if p.BalanceIn.Sign() < 0 || p.BalanceOut.Sign() < 0 {
		return fmt.Errorf("%w: pool %d: negative balance", ErrInvalidState, p.PoolID)
	}
	if p.TokenIn.Rate == nil || p.TokenOut.Rate == nil {
		return fmt.Errorf("%w: pool %d: nil oracle rate", ErrInvalidState, p.PoolID)
	}
	if err := p.Params.Validate(); err != nil {
		return fmt.Errorf("%w: pool %d: %w", ErrInvalidState, p.PoolID, err)
	}
	return nil
}

// Reserves returns the pair's balances in numeraire and their sum.
func (p *PairData) Reserves() (in, out, total *big.Int, err error) {
	in, err = p.TokenIn.ToNumeraire(p.BalanceIn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("token in %s: %w", p.TokenIn.Address.Hex(), err)
	}
	out, err = p.TokenOut.ToNumeraire(p.BalanceOut)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("token out %s: %w", p.TokenOut.Address.Hex(), err)
	}
	return in, out, new(big.Int).Add(in, out), nil
}

// NewPairData assembles the swap input for tokenIn -> tokenOut from a cached pool.
// It fails with ErrMissingPriceData when either token has no oracle quote.
func NewPairData(pool fxpool.Pool, tokenIn, tokenOut common.Address) (*PairData, error) {
	in, err := tokenQuote(pool, tokenIn)
	if err != nil {
		return nil, err
	}
	out, err := tokenQuote(pool, tokenOut)
	if err != nil {
		return nil, err
	}

	if tokenIn != tokenOut && pool.ReferenceToken != tokenIn && pool.ReferenceToken != tokenOut {
		return nil, fmt.Errorf("%w: pool %d reference token %s is not part of %s -> %s",
			ErrNoReferenceToken, pool.ID, pool.ReferenceToken.Hex(), tokenIn.Hex(), tokenOut.Hex())
	}

	balanceIn, err := balanceOf(pool, tokenIn)
	if err != nil {
		return nil, err
	}
	balanceOut, err := balanceOf(pool, tokenOut)
	if err != nil {
		return nil, err
	}

	params, err := ParseParams(pool)
	if err != nil {
		return nil, err
	}

	return &PairData{
		PoolID:             pool.ID,
		TokenIn:            in,
		TokenOut:           out,
		BalanceIn:          balanceIn,
		BalanceOut:         balanceOut,
		Params:             params,
		TokenInIsReference: pool.ReferenceToken == tokenIn,
	}, nil
}

// ParseParams parses the pool's curve parameter literals. Digits beyond the
// contract's 18-decimal precision are truncated.
func ParseParams(pool fxpool.Pool) (curvemath.Params, error) {
	var params curvemath.Params
	literals := []struct {
		name string
		src  string
		dst  **big.Int
	}{
		{"alpha", pool.Alpha, &params.Alpha},
		{"beta", pool.Beta, &params.Beta},
		{"delta", pool.Delta, &params.Delta},
		{"epsilon", pool.Epsilon, &params.Epsilon},
		{"lambda", pool.Lambda, &params.Lambda},
	}
	for _, l := range literals {
		v, err := fixedpoint.ParseFixed(l.src, parameterPrecision)
		if err != nil {
			return curvemath.Params{}, fmt.Errorf("%w: pool %d %s: %v", ErrInvalidParameter, pool.ID, l.name, err)
		}
		*l.dst = v
	}
	if err := params.Validate(); err != nil {
		return curvemath.Params{}, fmt.Errorf("%w: pool %d: %v", ErrInvalidParameter, pool.ID, err)
	}
	return params, nil
}

func tokenQuote(pool fxpool.Pool, address common.Address) (TokenQuote, error) {
	token, ok := pool.Token(address)
	if !ok {
		return TokenQuote{}, fmt.Errorf("%w: pool %d does not contain token %s", ErrTokenMismatch, pool.ID, address.Hex())
	}

	if token.LatestFXPrice == "" {
		return TokenQuote{}, fmt.Errorf("%w: pool %d token %s", ErrMissingPriceData, pool.ID, address.Hex())
	}
	rate, ok := new(big.Int).SetString(token.LatestFXPrice, 10)
	if !ok {
		return TokenQuote{}, fmt.Errorf("%w: pool %d token %s has unparsable price %q", ErrMissingPriceData, pool.ID, address.Hex(), token.LatestFXPrice)
	}
	if rate.Sign() <= 0 {
		return TokenQuote{}, fmt.Errorf("%w: pool %d token %s has non-positive price", ErrMissingPriceData, pool.ID, address.Hex())
	}
	if _, overflow := uint256.FromBig(rate); overflow {
		return TokenQuote{}, fmt.Errorf("%w: pool %d token %s price exceeds uint256", ErrInvalidState, pool.ID, address.Hex())
	}

	rateDecimals := numeraire.DefaultRateDecimals
	if token.FXOracleDecimals != nil {
		rateDecimals = *token.FXOracleDecimals
	}
	if int(token.Decimals)+int(rateDecimals) > numeraire.MaxCombinedDecimals {
		return TokenQuote{}, fmt.Errorf("%w: pool %d token %s: %d token decimals and %d oracle decimals exceed %d",
			ErrInvalidState, pool.ID, address.Hex(), token.Decimals, rateDecimals, numeraire.MaxCombinedDecimals)
	}

	return TokenQuote{
		Address:      address,
		Decimals:     token.Decimals,
		Rate:         rate,
		RateDecimals: rateDecimals,
	}, nil
}

func balanceOf(pool fxpool.Pool, address common.Address) (*big.Int, error) {
	balance, ok := pool.Balances[address]
	if !ok || balance == nil {
		return nil, fmt.Errorf("%w: pool %d token %s", ErrMissingBalance, pool.ID, address.Hex())
	}
	if balance.Sign() < 0 {
		return nil, fmt.Errorf("%w: pool %d token %s has negative balance", ErrInvalidState, pool.ID, address.Hex())
	}
	if _, overflow := uint256.FromBig(balance); overflow {
		return nil, fmt.Errorf("%w: pool %d token %s balance exceeds uint256", ErrInvalidState, pool.ID, address.Hex())
	}
	return new(big.Int).Set(balance), nil
}
