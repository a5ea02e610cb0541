package fxpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	usdc = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	xsgd = common.HexToAddress("0x70e8de73ce538da2beed35d14187f6959a8eca96")
)

// testPool builds a USDC/XSGD pool with the given raw balances.
func testPool(id uint64, usdcBalance, xsgdBalance int64) Pool {
	return Pool{
		ID:             id,
		Address:        common.BigToAddress(new(big.Int).SetUint64(id)),
		ReferenceToken: usdc,
		Tokens: []Token{
			{Address: usdc, Decimals: 6, LatestFXPrice: "100000000"},
			{Address: xsgd, Decimals: 6, LatestFXPrice: "74000000"},
		},
		Alpha:   "0.8",
		Beta:    "0.42",
		Delta:   "0.3",
		Epsilon: "0.0015",
		Lambda:  "0.3",
		Balances: map[common.Address]*big.Int{
			usdc: big.NewInt(usdcBalance),
			xsgd: big.NewInt(xsgdBalance),
		},
	}
}
