package fxpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to find a pool by ID in a slice, for testing assertions.
func findPoolByID(pools []Pool, id uint64) *Pool {
	for i := range pools {
		if pools[i].ID == id {
			return &pools[i]
		}
	}
	return nil
}

func TestPatcher(t *testing.T) {
	initialState := []Pool{testPool(1, 1000, 5000), testPool(2, 2000, 6000), testPool(3, 3000, 7000)}

	t.Run("should handle only additions", func(t *testing.T) {
		newState, err := Patcher(initialState, FXPoolSystemDiff{Additions: []Pool{testPool(4, 4000, 1)}})
		require.NoError(t, err)

		assert.Len(t, newState, 4)
		newPool := findPoolByID(newState, 4)
		require.NotNil(t, newPool)
		assert.Equal(t, int64(4000), newPool.Balances[usdc].Int64())
	})

	t.Run("should handle only deletions", func(t *testing.T) {
		newState, err := Patcher(initialState, FXPoolSystemDiff{Deletions: []uint64{2}})
		require.NoError(t, err)

		assert.Len(t, newState, 2)
		assert.Nil(t, findPoolByID(newState, 2))
		assert.NotNil(t, findPoolByID(newState, 1))
	})

	t.Run("should handle only updates", func(t *testing.T) {
		newState, err := Patcher(initialState, FXPoolSystemDiff{Updates: []Pool{testPool(1, 1001, 5005)}})
		require.NoError(t, err)

		assert.Len(t, newState, 3)
		updatedPool := findPoolByID(newState, 1)
		require.NotNil(t, updatedPool)
		assert.Equal(t, int64(1001), updatedPool.Balances[usdc].Int64())
		assert.Equal(t, int64(5005), updatedPool.Balances[xsgd].Int64())
	})

	t.Run("should verify deep copy", func(t *testing.T) {
		localInitialState := []Pool{testPool(1, 1000, 5000)}
		decimals := uint8(8)
		update := testPool(1, 1001, 5005)
		update.Tokens[0].FXOracleDecimals = &decimals

		newState, err := Patcher(localInitialState, FXPoolSystemDiff{Updates: []Pool{update}})
		require.NoError(t, err)
		require.Len(t, newState, 1)

		// mutate every pointer-backed field of the diff after patching
		update.Balances[usdc].SetInt64(9999)
		update.Balances[xsgd] = big.NewInt(1)
		update.Tokens[1].LatestFXPrice = "1"
		decimals = 18

		patched := findPoolByID(newState, 1)
		require.NotNil(t, patched)
		assert.Equal(t, int64(1001), patched.Balances[usdc].Int64())
		assert.Equal(t, int64(5005), patched.Balances[xsgd].Int64())
		assert.Equal(t, "74000000", patched.Tokens[1].LatestFXPrice)
		require.NotNil(t, patched.Tokens[0].FXOracleDecimals)
		assert.Equal(t, uint8(8), *patched.Tokens[0].FXOracleDecimals)
	})

	t.Run("should round-trip a diff", func(t *testing.T) {
		next := []Pool{testPool(1, 1001, 5000), testPool(3, 3000, 7000), testPool(4, 1, 1)}

		newState, err := Patcher(initialState, Differ(initialState, next))
		require.NoError(t, err)
		assert.ElementsMatch(t, next, newState)
	})

	t.Run("should order the result by pool ID", func(t *testing.T) {
		newState, err := Patcher(initialState, FXPoolSystemDiff{
			Deletions: []uint64{1},
			Additions: []Pool{testPool(9, 1, 1), testPool(0, 1, 1)},
		})
		require.NoError(t, err)

		ids := make([]uint64, 0, len(newState))
		for _, p := range newState {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []uint64{0, 2, 3, 9}, ids)
	})

	t.Run("should handle an empty diff", func(t *testing.T) {
		newState, err := Patcher(initialState, FXPoolSystemDiff{})
		require.NoError(t, err)
		assert.ElementsMatch(t, initialState, newState)
	})
}
