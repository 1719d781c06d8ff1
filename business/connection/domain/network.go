// Package domain contains the core domain types for the connection context.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeCurrency describes a chain's native coin.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainParams is the chain definition handed to a wallet that does not know
// the chain yet (wallet_addEthereumChain payload).
type ChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// NetworkTarget is the network every operation must run on. Immutable.
type NetworkTarget struct {
	chainID      uint64
	chainIDHex   string
	name         string
	currency     NativeCurrency
	rpcURLs      []string
	explorerURLs []string
}

// NewNetworkTarget builds a target; the hex form is derived from the number.
func NewNetworkTarget(chainID uint64, name string, currency NativeCurrency, rpcURLs, explorerURLs []string) NetworkTarget {
	return NetworkTarget{
		chainID:      chainID,
		chainIDHex:   hexutil.EncodeUint64(chainID),
		name:         name,
		currency:     currency,
		rpcURLs:      append([]string(nil), rpcURLs...),
		explorerURLs: append([]string(nil), explorerURLs...),
	}
}

// ChainID returns the numeric chain id.
func (t NetworkTarget) ChainID() uint64 { return t.chainID }

// ChainIDHex returns the canonical 0x-prefixed lowercase hex chain id.
func (t NetworkTarget) ChainIDHex() string { return t.chainIDHex }

// Name returns the display name.
func (t NetworkTarget) Name() string { return t.name }

// Currency returns the native currency descriptor.
func (t NetworkTarget) Currency() NativeCurrency { return t.currency }

// ExplorerURL returns the first block explorer URL, or "".
func (t NetworkTarget) ExplorerURL() string {
	if len(t.explorerURLs) == 0 {
		return ""
	}
	return t.explorerURLs[0]
}

// TxURL links a transaction on the block explorer, or returns "".
func (t NetworkTarget) TxURL(hash string) string {
	base := t.ExplorerURL()
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash
}

// Matches reports whether a wallet-reported chain id is this target.
// Wallets differ in hex casing and leading zeros, so both sides are
// canonicalized before comparing.
func (t NetworkTarget) Matches(chainIDHex string) bool {
	return strings.EqualFold(CanonicalChainID(chainIDHex), t.chainIDHex)
}

// ChainParams renders the target for registration with a wallet.
func (t NetworkTarget) ChainParams() ChainParams {
	return ChainParams{
		ChainID:           t.chainIDHex,
		ChainName:         t.name,
		NativeCurrency:    t.currency,
		RPCURLs:           append([]string(nil), t.rpcURLs...),
		BlockExplorerURLs: append([]string(nil), t.explorerURLs...),
	}
}

// CanonicalChainID lowercases a hex chain id and strips leading zeros.
// Input that is not hex is returned lowercased and otherwise untouched.
func CanonicalChainID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, err := hexutil.DecodeUint64(s); err == nil {
		return hexutil.EncodeUint64(v)
	}
	if strings.HasPrefix(s, "0x") {
		trimmed := strings.TrimLeft(s[2:], "0")
		if trimmed == "" {
			trimmed = "0"
		}
		return "0x" + trimmed
	}
	return s
}
