package asset

import (
	"fmt"
	"math/big"
	"time"
)

// Price is an on-chain exchange rate: base units of the quote asset owed per
// one whole unit of the base asset. A token sale pricing its token at
// 0.002 ETH carries rate 2e15 with base=token and quote=ETH.
type Price struct {
	rate      *big.Int
	base      *Asset
	quote     *Asset
	timestamp time.Time
}

// NewPrice creates a price from the raw rate as returned by the contract.
func NewPrice(base, quote *Asset, rate *big.Int, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate == nil {
		panic("asset: nil rate")
	}
	if rate.Sign() < 0 {
		panic("asset: negative price rate")
	}

	return Price{
		rate:      new(big.Int).Set(rate),
		base:      base,
		quote:     quote,
		timestamp: timestamp,
	}
}

// RateRaw returns the raw rate.
func (p Price) RateRaw() *big.Int {
	if p.rate == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.rate)
}

// Rate returns the rate as a quote-asset amount.
func (p Price) Rate() Amount {
	return NewAmount(p.quote, p.RateRaw())
}

// Base returns the base asset.
func (p Price) Base() *Asset {
	return p.base
}

// Quote returns the quote asset.
func (p Price) Quote() *Asset {
	return p.quote
}

// Timestamp returns when this price was read.
func (p Price) Timestamp() time.Time {
	return p.timestamp
}

// IsZero returns true if the price is zero.
func (p Price) IsZero() bool {
	return p.rate == nil || p.rate.Sign() == 0
}

// Cost converts an amount of the base asset into the quote asset:
// floor(amount * rate / 10^baseDecimals). Flooring matches the integer
// division performed on-chain.
func (p Price) Cost(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.base.Symbol(), amount.Asset().Symbol())
	}

	return NewAmount(p.quote, MulDivFloor(amount.Raw(), p.RateRaw(), p.base.Decimals())), nil
}

// MulDivFloor returns floor(a * b / 10^decimals) for non-negative a and b.
func MulDivFloor(a, b *big.Int, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, scale)
}

// String returns a human-readable representation.
func (p Price) String() string {
	return fmt.Sprintf("%s per %s", p.Rate().String(), p.base.Symbol())
}
