package indexer

import (
	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/ethereum/go-ethereum/common"
)

// IndexedFXPool defines the methods for accessing indexed FX pool data.
type IndexedFXPool interface {
	GetByID(id uint64) (fxpool.Pool, bool)
	GetByAddress(address common.Address) (fxpool.Pool, bool)
	All() []fxpool.Pool
}
