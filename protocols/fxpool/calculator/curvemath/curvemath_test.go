package curvemath

import (
	"math/big"
	"testing"

	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBigIntFromString(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("failed to set string for big.Int")
	}
	return n
}

// fp parses a decimal literal at full 36-decimal precision.
func fp(s string) *big.Int {
	v, err := fixedpoint.ParseFixed(s, fixedpoint.Decimals)
	if err != nil {
		panic(err)
	}
	return v
}

func testParams() Params {
	return Params{
		Alpha:   fp("0.02"),
		Beta:    fp("0.005"),
		Delta:   fp("0.5"),
		Epsilon: fp("0.0004"),
		Lambda:  fp("0.3"),
	}
}

func TestAssetFee(t *testing.T) {
	p := testParams()

	testCases := []struct {
		name     string
		balance  *big.Int
		ideal    *big.Int
		beta     *big.Int
		delta    *big.Int
		expected *big.Int
	}{
		{
			name:     "Overweight outside deadband",
			balance:  fixedpoint.New(1_000_000),
			ideal:    fixedpoint.New(950_000),
			beta:     p.Beta,
			delta:    p.Delta,
			expected: newBigIntFromString("1077664473684210526315789473684210502500"),
		},
		{
			name:     "Underweight outside deadband mirrors overweight",
			balance:  fixedpoint.New(900_000),
			ideal:    fixedpoint.New(950_000),
			beta:     p.Beta,
			delta:    p.Delta,
			expected: newBigIntFromString("1077664473684210526315789473684210502500"),
		},
		{
			name:     "Inside deadband",
			balance:  fixedpoint.New(954_000),
			ideal:    fixedpoint.New(950_000),
			beta:     p.Beta,
			delta:    p.Delta,
			expected: big.NewInt(0),
		},
		{
			name:     "Exactly at ideal",
			balance:  fixedpoint.New(950_000),
			ideal:    fixedpoint.New(950_000),
			beta:     p.Beta,
			delta:    p.Delta,
			expected: big.NewInt(0),
		},
		{
			name:     "Rate capped at 0.25",
			balance:  fixedpoint.New(2_000),
			ideal:    fixedpoint.New(1_000),
			beta:     big.NewInt(0),
			delta:    fixedpoint.New(1),
			expected: fixedpoint.New(250),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AssetFee(tc.balance, tc.ideal, tc.beta, tc.delta)
			require.NoError(t, err)
			assert.Zero(t, tc.expected.Cmp(got), "expected %s, got %s", tc.expected, got)
		})
	}

	t.Run("Cap bounds the rate, not the fee", func(t *testing.T) {
		smaller, err := AssetFee(fixedpoint.New(2_000), fixedpoint.New(1_000), big.NewInt(0), fixedpoint.New(1))
		require.NoError(t, err)
		larger, err := AssetFee(fixedpoint.New(3_000), fixedpoint.New(1_000), big.NewInt(0), fixedpoint.New(1))
		require.NoError(t, err)
		assert.Zero(t, fixedpoint.New(500).Cmp(larger))
		assert.Equal(t, 1, larger.Cmp(smaller))
	})

	t.Run("Non-positive ideal", func(t *testing.T) {
		_, err := AssetFee(fixedpoint.New(1), big.NewInt(0), p.Beta, p.Delta)
		assert.ErrorIs(t, err, ErrInvalidLiquidity)
	})
}

func TestAggregateFee(t *testing.T) {
	p := testParams()

	got, err := AggregateFee(
		fixedpoint.New(1_900_000),
		[]*big.Int{fixedpoint.New(1_000_000), fixedpoint.New(900_000)},
		p.Beta, p.Delta, DefaultWeights(),
	)
	require.NoError(t, err)
	assert.Equal(t, "2155328947368421052631578947368421005000", got.String(), "fees are summed over assets")

	_, err = AggregateFee(fixedpoint.New(1), []*big.Int{fixedpoint.New(1)}, p.Beta, p.Delta, DefaultWeights())
	assert.ErrorIs(t, err, ErrInvalidLiquidity)

	t.Run("Arbitrary weight vector", func(t *testing.T) {
		third := fp("0.333333333333333333333333333333333333")
		weights := []*big.Int{third, third, third}
		balances := []*big.Int{fixedpoint.New(100), fixedpoint.New(100), fixedpoint.New(100)}
		fee, err := AggregateFee(fixedpoint.New(300), balances, p.Beta, p.Delta, weights)
		require.NoError(t, err)
		assert.Zero(t, fee.Sign(), "a balanced pool pays no fee")
	})
}

func TestIdealShare(t *testing.T) {
	got := IdealShare(fixedpoint.New(1_900_000), DefaultWeights()[0])
	assert.Zero(t, fixedpoint.New(950_000).Cmp(got))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, testParams().Validate())

	missing := testParams()
	missing.Lambda = nil
	assert.ErrorIs(t, missing.Validate(), ErrInvalidParameter)

	negative := testParams()
	negative.Delta = big.NewInt(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidParameter)

	wide := testParams()
	wide.Alpha = fixedpoint.New(1)
	assert.ErrorIs(t, wide.Validate(), ErrInvalidParameter)
}
