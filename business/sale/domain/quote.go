// Package domain contains the core domain types for the sale context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/tokensale-client/internal/asset"
)

// TokenSymbol is the display ticker of the sale token.
const TokenSymbol = "TKN"

// Quote is a value in base units together with its exact decimal rendering.
type Quote struct {
	BaseUnits *big.Int
	Decimal   string
	Decimals  uint8
}

// NewQuote renders raw at the given precision. A nil raw quotes as zero.
func NewQuote(raw *big.Int, decimals uint8) Quote {
	if raw == nil {
		raw = big.NewInt(0)
	}
	return Quote{
		BaseUnits: new(big.Int).Set(raw),
		Decimal:   asset.FormatUnits(raw, decimals),
		Decimals:  decimals,
	}
}

// NativeQuote renders wei as ether.
func NativeQuote(wei *big.Int) Quote {
	return NewQuote(wei, asset.NativeDecimals)
}

// IsZero reports whether the quote is zero.
func (q Quote) IsZero() bool {
	return q.BaseUnits == nil || q.BaseUnits.Sign() == 0
}

func (q Quote) String() string {
	if q.Decimal == "" {
		return "0"
	}
	return q.Decimal
}

// Cost is the native amount owed for amount token base units at price wei
// per whole token: floor(amount * price / 10^decimals). The contract divides
// the same way, so client and contract agree on every wei.
func Cost(amount, price *big.Int, decimals uint8) *big.Int {
	if amount == nil || price == nil {
		return big.NewInt(0)
	}
	return asset.MulDivFloor(amount, price, decimals)
}

// SalePrice types a raw sale price read at the given time: native base
// units per whole token on chainID.
func SalePrice(chainID uint64, token common.Address, decimals uint8, nativeSymbol string, rate *big.Int, at time.Time) asset.Price {
	return asset.NewPrice(
		asset.NewToken(chainID, token, TokenSymbol, decimals),
		asset.NewNative(chainID, nativeSymbol),
		rate,
		at,
	)
}

// PricePair holds both sale prices in wei per whole token.
type PricePair struct {
	Buy  Quote
	Sell Quote
}
