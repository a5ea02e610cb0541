package fxpool

import "slices"

type FXPoolSystemDiff struct {
	Additions []Pool   `json:"additions,omitempty"`
	Updates   []Pool   `json:"updates,omitempty"`
	Deletions []uint64 `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d FXPoolSystemDiff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Differ calculates the difference between two snapshots of FX pools, keyed by pool ID.
// A pool is updated when its balances, oracle quotes or curve parameters changed.
func Differ(old, new []Pool) FXPoolSystemDiff {
	oldPoolsMap := make(map[uint64]Pool, len(old))
	for _, pool := range old {
		oldPoolsMap[pool.ID] = pool
	}

	newPoolsMap := make(map[uint64]Pool, len(new))
	for _, pool := range new {
		newPoolsMap[pool.ID] = pool
	}

	var additions []Pool
	var updates []Pool
	var deletions []uint64

	for newID, newPool := range newPoolsMap {
		oldPool, exists := oldPoolsMap[newID]
		if !exists {
			additions = append(additions, newPool)
			continue
		}
		if poolChanged(oldPool, newPool) {
			updates = append(updates, newPool)
		}
	}

	for oldID := range oldPoolsMap {
		if _, exists := newPoolsMap[oldID]; !exists {
			deletions = append(deletions, oldID)
		}
	}

	return FXPoolSystemDiff{
		Additions: additions,
		Updates:   updates,
		Deletions: deletions,
	}
}

// poolChanged compares the fields a refresh can move, without reflect.DeepEqual.
func poolChanged(a, b Pool) bool {
	if a.Alpha != b.Alpha || a.Beta != b.Beta || a.Delta != b.Delta || a.Epsilon != b.Epsilon || a.Lambda != b.Lambda {
		return true
	}
	if a.Address != b.Address || a.ReferenceToken != b.ReferenceToken {
		return true
	}
	if !slices.EqualFunc(a.Tokens, b.Tokens, tokenEqual) {
		return true
	}

	if len(a.Balances) != len(b.Balances) {
		return true
	}
	for addr, balA := range a.Balances {
		balB, ok := b.Balances[addr]
		if !ok {
			return true
		}
		if (balA == nil) != (balB == nil) || (balA != nil && balA.Cmp(balB) != 0) {
			return true
		}
	}
	return false
}

func tokenEqual(a, b Token) bool {
	if a.Address != b.Address || a.Decimals != b.Decimals || a.LatestFXPrice != b.LatestFXPrice {
		return false
	}
	if (a.FXOracleDecimals == nil) != (b.FXOracleDecimals == nil) {
		return false
	}
	return a.FXOracleDecimals == nil || *a.FXOracleDecimals == *b.FXOracleDecimals
}
