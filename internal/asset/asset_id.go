// Package asset models on-chain assets and exact base-unit amounts.
// The core uses big.Int for on-chain values; decimal.Decimal appears only
// at the parsing and display boundary.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies an asset by chain and contract address.
// Native coins carry the zero address.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a chain's native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

// ChainID returns the chain ID.
func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address {
	return id.address
}

// IsNative returns true if this is the chain's native coin.
func (id AssetID) IsNative() bool {
	return id.address == (common.Address{})
}

// String returns a human-readable representation.
func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
