package asset

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: cannot operate on different assets")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
)

// Amount is a non-negative quantity of one asset in base units.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw into an Amount of asset. It panics on a nil asset or
// a negative value: both are programming errors, user input goes through
// ParseString.
func NewAmount(asset *Asset, raw *big.Int) Amount {
	if asset == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: asset}
}

// ParseString reads a user-entered decimal at the asset's own precision.
func ParseString(asset *Asset, s string) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	raw, err := ParseUnits(s, asset.Decimals())
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(asset, raw), nil
}

// Raw returns a copy of the base-unit value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the denomination.
func (a Amount) Asset() *Asset {
	return a.asset
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// DecimalString renders the exact value without a symbol.
func (a Amount) DecimalString() string {
	if a.asset == nil {
		return "0"
	}
	return FormatUnits(a.raw, a.asset.Decimals())
}

// String renders the value with its symbol, e.g. "1.5 ETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0"
	}
	return fmt.Sprintf("%s %s", a.DecimalString(), a.asset.Symbol())
}
