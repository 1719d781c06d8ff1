package asset

import "github.com/ethereum/go-ethereum/common"

// Asset is the metadata of a native coin or token: identity plus precision.
// Token precision comes from the token contract, never from a guess.
type Asset struct {
	id       AssetID
	symbol   string
	decimals uint8
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 77 {
		panic("asset: decimals exceed uint256 range")
	}

	return &Asset{
		id:       id,
		symbol:   symbol,
		decimals: decimals,
	}
}

// NewToken creates a token asset whose decimals were read from its contract.
func NewToken(chainID uint64, address common.Address, symbol string, decimals uint8) *Asset {
	return NewAsset(NewTokenAssetID(chainID, address), symbol, decimals)
}

// ID returns the unique identifier for this asset.
func (a *Asset) ID() AssetID {
	return a.id
}

// Symbol returns the ticker symbol.
func (a *Asset) Symbol() string {
	return a.symbol
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// IsNative returns true if this is a native coin.
func (a *Asset) IsNative() bool {
	return a.id.IsNative()
}

// Address returns the token contract address (zero for native coins).
func (a *Asset) Address() common.Address {
	return a.id.Address()
}

// String returns the symbol.
func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
