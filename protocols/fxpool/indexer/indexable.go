package indexer

import (
	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/ethereum/go-ethereum/common"
)

// Indexer builds IndexedFXPool views.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed FX pool system from a raw slice of pools.
func (i *Indexer) Index(pools []fxpool.Pool) IndexedFXPool {
	return NewIndexableFXPoolSystem(pools)
}

// IndexableFXPoolSystem provides lookups of FX pools by ID and by pool address.
type IndexableFXPoolSystem struct {
	byID      map[uint64]fxpool.Pool
	byAddress map[common.Address]fxpool.Pool
	all       []fxpool.Pool
}

// NewIndexableFXPoolSystem creates a new indexed FX pool system.
func NewIndexableFXPoolSystem(pools []fxpool.Pool) *IndexableFXPoolSystem {
	byID := make(map[uint64]fxpool.Pool, len(pools))
	byAddress := make(map[common.Address]fxpool.Pool, len(pools))

	for _, p := range pools {
		byID[p.ID] = p
		byAddress[p.Address] = p
	}

	return &IndexableFXPoolSystem{
		byID:      byID,
		byAddress: byAddress,
		all:       pools,
	}
}

// GetByID retrieves a pool by its unique ID.
func (s *IndexableFXPoolSystem) GetByID(id uint64) (fxpool.Pool, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// GetByAddress retrieves a pool by its on-chain address.
func (s *IndexableFXPoolSystem) GetByAddress(address common.Address) (fxpool.Pool, bool) {
	p, ok := s.byAddress[address]
	return p, ok
}

// All returns a defensive copy of the slice of all pools.
func (s *IndexableFXPoolSystem) All() []fxpool.Pool {
	allCopy := make([]fxpool.Pool, len(s.all))
	copy(allCopy, s.all)
	return allCopy
}
