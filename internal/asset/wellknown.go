package asset

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDSepolia  = 11155111
	ChainIDHolesky  = 17000
)

// NativeDecimals is the fixed precision of the native currency (wei per ether).
const NativeDecimals uint8 = 18

// ETH is the Sepolia native currency.
var ETH = NewNative(ChainIDSepolia, "ETH")

// NewNative creates the native coin asset of a chain. Native amounts always
// use NativeDecimals.
func NewNative(chainID uint64, symbol string) *Asset {
	return NewAsset(NewNativeAssetID(chainID), symbol, NativeDecimals)
}
