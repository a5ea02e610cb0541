package calculator

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/curvemath"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/numeraire"
	"github.com/holiman/uint256"
)

// SwapSide selects which amount of a swap is fixed by the caller.
type SwapSide uint8

const (
	// SwapSideSell fixes the input amount (given-in).
	SwapSideSell SwapSide = iota
	// SwapSideBuy fixes the output amount (given-out).
	SwapSideBuy
)

func (s SwapSide) String() string {
	switch s {
	case SwapSideSell:
		return "sell"
	case SwapSideBuy:
		return "buy"
	default:
		return fmt.Sprintf("SwapSide(%d)", uint8(s))
	}
}

var (
	// ErrInvalidAmount is returned when an input/output amount is negative or exceeds uint256.
	ErrInvalidAmount = errors.New("amount must be non-negative and fit in uint256")
	// ErrNilAmount is returned when a nil pointer is passed for an amount.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrTokenMismatch is returned when a token is not part of the pool.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrInvalidState is returned for snapshots or results that cannot exist on chain.
	ErrInvalidState = errors.New("invalid internal state")
	// ErrMissingBalance is returned when the snapshot has no balance for a pool token.
	ErrMissingBalance = errors.New("missing pool balance")
	// ErrNoReferenceToken is returned when neither side of the pair is the pool's reference asset.
	ErrNoReferenceToken = errors.New("pair does not include the pool reference token")
	// ErrInvalidParameter is returned when a curve parameter literal is malformed or out of range.
	ErrInvalidParameter = errors.New("invalid curve parameter")
	// ErrCannotSwap wraps every rejection raised by the trade solver.
	ErrCannotSwap = errors.New("CurveMath/cannot-swap")
	// ErrMissingPriceData is returned when an oracle price is absent or zero.
	ErrMissingPriceData = numeraire.ErrMissingPriceData
)

// Calculator holds reusable big.Int objects for the epsilon and headroom arithmetic.
// Instances are NOT safe for concurrent use and are managed by calculatorPool.
type Calculator struct {
	factor  *big.Int
	withFee *big.Int
	limit   *big.Int
}

// maxTradableTolerance bounds the max tradable search to candidate/2^20.
const maxTradableTolerance = 20

var calculatorPool = sync.Pool{
	New: func() any {
		return &Calculator{
			factor:  new(big.Int),
			withFee: new(big.Int),
			limit:   new(big.Int),
		}
	},
}

// GetAmountOut returns the raw amount of tokenOut received for amountIn of tokenIn.
// Solver rejections are wrapped in ErrCannotSwap.
func GetAmountOut(amountIn *big.Int, pair *PairData) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountOut(amountIn, pair)
}

// GetAmountIn returns the raw amount of tokenIn required to receive amountOut of tokenOut.
// Solver rejections are wrapped in ErrCannotSwap.
func GetAmountIn(amountOut *big.Int, pair *PairData) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountIn(amountOut, pair)
}

// GetMaxTradableAmount returns the largest amount that keeps the pool inside its
// alpha halt boundary, in raw units of tokenIn for SwapSideSell and of tokenOut
// for SwapSideBuy. The band headroom ((1+alpha)/2 * total - side reserves) is the
// starting point; when the solver rejects it the amount is backed off until a
// quote at it succeeds.
func GetMaxTradableAmount(pair *PairData, side SwapSide) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getMaxTradableAmount(pair, side)
}

// QuoteGivenIn quotes every amount in amountsIn. A failed amount yields 0 without
// affecting the others.
func QuoteGivenIn(amountsIn []*big.Int, pair *PairData) []*big.Int {
	return quoteAll(amountsIn, pair, GetAmountOut)
}

// QuoteGivenOut quotes every amount in amountsOut. A failed amount yields 0 without
// affecting the others.
func QuoteGivenOut(amountsOut []*big.Int, pair *PairData) []*big.Int {
	return quoteAll(amountsOut, pair, GetAmountIn)
}

// MaxTradableAmount is GetMaxTradableAmount returning 0 on failure.
func MaxTradableAmount(pair *PairData, side SwapSide) *big.Int {
	amount, err := GetMaxTradableAmount(pair, side)
	if err != nil {
		return new(big.Int)
	}
	return amount
}

func quoteAll(amounts []*big.Int, pair *PairData, quote func(*big.Int, *PairData) (*big.Int, error)) []*big.Int {
	results := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		result, err := quote(amount, pair)
		if err != nil {
			result = new(big.Int)
		}
		results[i] = result
	}
	return results
}

func (c *Calculator) getAmountOut(amountIn *big.Int, pair *PairData) (*big.Int, error) {
	if err := validateAmount(amountIn); err != nil {
		return nil, err
	}
	if err := pair.validate(); err != nil {
		return nil, err
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	if pair.IsIdentity() {
		return new(big.Int).Set(amountIn), nil
	}

	given, err := pair.TokenIn.ToNumeraire(amountIn)
	if err != nil {
		return nil, err
	}

	outputIndex := 0
	if pair.TokenInIsReference {
		outputIndex = 1
	}
	result, err := solve(pair, given, given, outputIndex)
	if err != nil {
		return nil, err
	}

	// output is negative: |output * (1 - epsilon)|
	c.factor.Sub(fixedpoint.One(), pair.Params.Epsilon)
	fixedpoint.Mul(c.withFee, result.Amount, c.factor)
	c.withFee.Abs(c.withFee)

	amountOut, err := pair.TokenOut.FromNumeraire(c.withFee)
	if err != nil {
		return nil, err
	}
	return checkOnChain(amountOut)
}

func (c *Calculator) getAmountIn(amountOut *big.Int, pair *PairData) (*big.Int, error) {
	if err := validateAmount(amountOut); err != nil {
		return nil, err
	}
	if err := pair.validate(); err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return new(big.Int), nil
	}
	if pair.IsIdentity() {
		return new(big.Int).Set(amountOut), nil
	}

	given, err := pair.TokenOut.ToNumeraire(amountOut)
	if err != nil {
		return nil, err
	}

	outputIndex := 1
	if pair.TokenInIsReference {
		outputIndex = 0
	}
	result, err := solve(pair, given, new(big.Int).Neg(given), outputIndex)
	if err != nil {
		return nil, err
	}

	c.factor.Add(fixedpoint.One(), pair.Params.Epsilon)
	fixedpoint.Mul(c.withFee, result.Amount, c.factor)
	c.withFee.Abs(c.withFee)

	amountIn, err := pair.TokenIn.FromNumeraire(c.withFee)
	if err != nil {
		return nil, err
	}
	return checkOnChain(amountIn)
}

func (c *Calculator) getMaxTradableAmount(pair *PairData, side SwapSide) (*big.Int, error) {
	if err := pair.validate(); err != nil {
		return nil, err
	}
	in, out, total, err := pair.Reserves()
	if err != nil {
		return nil, err
	}

	// limit = (1 + alpha) * total / 2
	c.factor.Add(fixedpoint.One(), pair.Params.Alpha)
	fixedpoint.Mul(c.limit, c.factor, total)
	c.limit.Quo(c.limit, big.NewInt(2))

	token := pair.TokenIn
	quote := c.getAmountOut
	switch side {
	case SwapSideSell:
		c.limit.Sub(c.limit, in)
	case SwapSideBuy:
		c.limit.Sub(c.limit, out)
		token = pair.TokenOut
		quote = c.getAmountIn
	default:
		return nil, fmt.Errorf("%w: unknown swap side %s", ErrInvalidState, side)
	}

	if c.limit.Sign() <= 0 {
		return new(big.Int), nil
	}
	candidate, err := token.FromNumeraire(c.limit)
	if err != nil {
		return nil, err
	}
	return backOff(candidate, pair, quote), nil
}

// backOff returns candidate when it quotes, otherwise the largest amount below it
// that does, found by bisection to within candidate/2^maxTradableTolerance.
//
// The band headroom ignores the fee feedback, which moves the counter-amount away
// from the traded amount. A pool that starts outside its band also rejects small
// trades that do not bring it back inside, so only failures caused by trading too
// much move the upper bound down.
func backOff(candidate *big.Int, pair *PairData, quote func(*big.Int, *PairData) (*big.Int, error)) *big.Int {
	if _, err := quote(candidate, pair); err == nil {
		return candidate
	}

	lo := new(big.Int)
	hi := new(big.Int).Set(candidate)
	tolerance := new(big.Int).Rsh(candidate, maxTradableTolerance)
	if tolerance.Sign() == 0 {
		tolerance.SetInt64(1)
	}

	gap := new(big.Int)
	mid := new(big.Int)
	for gap.Sub(hi, lo).Cmp(tolerance) > 0 {
		mid.Add(lo, hi).Rsh(mid, 1)
		_, err := quote(mid, pair)
		if err != nil && tradesTooMuch(err, pair.TokenInIsReference) {
			hi.Set(mid)
		} else {
			lo.Set(mid)
		}
	}

	if lo.Sign() == 0 {
		return lo
	}
	if _, err := quote(lo, pair); err != nil {
		return new(big.Int)
	}
	return lo
}

// tradesTooMuch reports whether a rejected trade failed because it moved the pool
// too far toward tokenIn. Both assets of a two-asset pool breach together and the
// reference asset reports first, so an upper halt means the reference side grew
// too heavy. Non-halt failures grow with the trade size.
func tradesTooMuch(err error, tokenInIsReference bool) bool {
	switch {
	case errors.Is(err, curvemath.ErrUpperHalt):
		return tokenInIsReference
	case errors.Is(err, curvemath.ErrLowerHalt):
		return !tokenInIsReference
	default:
		return true
	}
}

// solve lays the pair out as [reference, base], moves both candidate balances by
// given, and runs the trade solver for target.
func solve(pair *PairData, given, target *big.Int, outputIndex int) (*curvemath.TradeResult, error) {
	in, out, total, err := pair.Reserves()
	if err != nil {
		return nil, err
	}

	var state curvemath.LiquidityState
	if pair.TokenInIsReference {
		state.OldBalances = []*big.Int{in, out}
		state.NewBalances = []*big.Int{new(big.Int).Add(in, given), new(big.Int).Sub(out, given)}
	} else {
		state.OldBalances = []*big.Int{out, in}
		state.NewBalances = []*big.Int{new(big.Int).Sub(out, given), new(big.Int).Add(in, given)}
	}
	state.OldGlobalLiquidity = total
	state.NewGlobalLiquidity = new(big.Int).Set(total)

	result, err := curvemath.CalculateTrade(state, target, outputIndex, pair.Params, curvemath.DefaultWeights())
	if err != nil {
		return nil, fmt.Errorf("%w: pool %d: %w", ErrCannotSwap, pair.PoolID, err)
	}
	return result, nil
}

func validateAmount(amount *big.Int) error {
	if amount == nil {
		return ErrNilAmount
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrInvalidAmount
	}
	return nil
}

// checkOnChain rejects results that no token contract could transfer.
func checkOnChain(amount *big.Int) (*big.Int, error) {
	if _, overflow := uint256.FromBig(amount); overflow {
		return nil, fmt.Errorf("%w: result %s exceeds uint256", ErrInvalidState, amount)
	}
	return amount, nil
}

// FailureReason classifies an error returned by this package into a short,
// stable label suitable for metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMissingPriceData):
		return "missing_price_data"
	case errors.Is(err, curvemath.ErrUpperHalt):
		return "upper_halt"
	case errors.Is(err, curvemath.ErrLowerHalt):
		return "lower_halt"
	case errors.Is(err, curvemath.ErrSwapInvariantViolation):
		return "swap_invariant_violation"
	case errors.Is(err, curvemath.ErrSwapConvergenceFailed):
		return "swap_convergence_failed"
	case errors.Is(err, ErrCannotSwap):
		return "cannot_swap"
	case errors.Is(err, ErrNilAmount), errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrTokenMismatch), errors.Is(err, ErrNoReferenceToken):
		return "token_mismatch"
	case errors.Is(err, ErrMissingBalance), errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidParameter):
		return "invalid_state"
	default:
		return "unknown"
	}
}
