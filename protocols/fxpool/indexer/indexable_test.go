package indexer

import (
	"math/big"
	"testing"

	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexableFXPoolSystem(t *testing.T) {
	poolA := common.HexToAddress("0x55bdf7f0223e8b1d509141a8d852dd86b3553d59")
	poolB := common.HexToAddress("0x2c4a4a49c39ef2c5e96c6ea0d1b0c8e7af4f1e9b")
	testPools := []fxpool.Pool{
		{ID: 101, Address: poolA, Epsilon: "0.0015", Balances: map[common.Address]*big.Int{}},
		{ID: 102, Address: poolB, Epsilon: "0.0005"},
	}

	indexer := NewIndexableFXPoolSystem(testPools)
	require.NotNil(t, indexer)

	t.Run("Successful Lookups", func(t *testing.T) {
		pool, found := indexer.GetByID(101)
		assert.True(t, found)
		assert.Equal(t, poolA, pool.Address)

		pool, found = indexer.GetByAddress(poolB)
		assert.True(t, found)
		assert.Equal(t, uint64(102), pool.ID)
	})

	t.Run("Not Found Lookups", func(t *testing.T) {
		_, found := indexer.GetByID(999)
		assert.False(t, found)

		_, found = indexer.GetByAddress(common.HexToAddress("0x01"))
		assert.False(t, found)
	})

	t.Run("All Method", func(t *testing.T) {
		allPools := indexer.All()
		require.Len(t, allPools, 2)

		allPools[0].Epsilon = "0.9"
		originalPool, _ := indexer.GetByID(101)
		assert.Equal(t, "0.0015", originalPool.Epsilon, "Modifying the returned slice should not affect the internal state")
	})

	t.Run("Edge Case - Nil Slice", func(t *testing.T) {
		nilIndexer := New().Index(nil)
		require.NotNil(t, nilIndexer)

		_, found := nilIndexer.GetByID(1)
		assert.False(t, found)

		allPools := nilIndexer.All()
		assert.Len(t, allPools, 0)
		assert.NotNil(t, allPools, "All() should return an empty slice, not nil")
	})
}
