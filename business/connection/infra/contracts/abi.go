// Package contracts binds the token and sale contracts over a wallet backend.
package contracts

// TokenABI covers the ERC-20 surface used by the client plus the capped
// supply constant.
const TokenABI = `[
	{"inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "totalSupply", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "MAX_SUPPLY", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "spender", "type": "address"}, {"name": "value", "type": "uint256"}],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// SaleABI is the exchange contract. The contract also buys on plain value
// transfers through its receive function.
const SaleABI = `[
	{"inputs": [], "name": "buyPrice", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "sellPrice", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "amount", "type": "uint256"}], "name": "buyTokens", "outputs": [], "stateMutability": "payable", "type": "function"},
	{"inputs": [{"name": "amount", "type": "uint256"}], "name": "sellTokens", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "amount", "type": "uint256"}], "name": "withdrawETH", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"stateMutability": "payable", "type": "receive"}
]`
