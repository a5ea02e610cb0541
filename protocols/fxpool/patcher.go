package fxpool

import (
	"cmp"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// deepCopyPool creates a Pool that shares no memory with p.
func deepCopyPool(p Pool) Pool {
	newPool := p

	if p.Tokens != nil {
		newPool.Tokens = make([]Token, len(p.Tokens))
		for i, t := range p.Tokens {
			if t.FXOracleDecimals != nil {
				d := *t.FXOracleDecimals
				t.FXOracleDecimals = &d
			}
			newPool.Tokens[i] = t
		}
	}

	if p.Balances != nil {
		newPool.Balances = make(map[common.Address]*big.Int, len(p.Balances))
		for addr, bal := range p.Balances {
			if bal != nil {
				bal = new(big.Int).Set(bal)
			}
			newPool.Balances[addr] = bal
		}
	}
	return newPool
}

// Patcher builds a new snapshot of FX pools by applying diff to prevState.
// Deletions apply first, then updates and additions; the result is ordered by
// pool ID and shares no memory with either input.
func Patcher(prevState []Pool, diff FXPoolSystemDiff) ([]Pool, error) {
	byID := make(map[uint64]Pool, len(prevState)+len(diff.Additions))
	for _, pool := range prevState {
		byID[pool.ID] = pool
	}
	for _, id := range diff.Deletions {
		delete(byID, id)
	}
	for _, changes := range [][]Pool{diff.Updates, diff.Additions} {
		for _, pool := range changes {
			byID[pool.ID] = pool
		}
	}

	next := make([]Pool, 0, len(byID))
	for _, pool := range byID {
		next = append(next, deepCopyPool(pool))
	}
	slices.SortFunc(next, func(a, b Pool) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return next, nil
}
