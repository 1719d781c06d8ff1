package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/connection/domain"
)

func sepolia() domain.NetworkTarget {
	return domain.NewNetworkTarget(11155111, "Sepolia Test Network",
		domain.NativeCurrency{Name: "Sepolia ETH", Symbol: "ETH", Decimals: 18},
		[]string{"https://rpc.sepolia.org"},
		[]string{"https://sepolia.etherscan.io"},
	)
}

func TestNetworkTarget_HexForm(t *testing.T) {
	assert.Equal(t, "0xaa36a7", sepolia().ChainIDHex())
}

func TestNetworkTarget_Matches(t *testing.T) {
	target := sepolia()

	for _, in := range []string{"0xaa36a7", "0xAA36A7", "0x00aa36a7", " 0xaa36a7 "} {
		assert.True(t, target.Matches(in), in)
	}
	for _, in := range []string{"0x1", "", "aa36a7x", "0xaa36a8"} {
		assert.False(t, target.Matches(in), in)
	}
}

func TestNetworkTarget_ChainParamsJSON(t *testing.T) {
	raw, err := json.Marshal(sepolia().ChainParams())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"chainId": "0xaa36a7",
		"chainName": "Sepolia Test Network",
		"nativeCurrency": {"name": "Sepolia ETH", "symbol": "ETH", "decimals": 18},
		"rpcUrls": ["https://rpc.sepolia.org"],
		"blockExplorerUrls": ["https://sepolia.etherscan.io"]
	}`, string(raw))
}

func TestNetworkTarget_TxURL(t *testing.T) {
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", sepolia().TxURL("0xabc"))

	bare := domain.NewNetworkTarget(1, "Mainnet", domain.NativeCurrency{Symbol: "ETH", Decimals: 18}, nil, nil)
	assert.Empty(t, bare.TxURL("0xabc"))
}
