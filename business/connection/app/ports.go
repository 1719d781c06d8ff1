// Package app contains application services and port definitions for the connection context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/tokensale-client/business/connection/domain"
)

// Backend is the read side of the chain the wallet is attached to.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Wallet is the wallet provider boundary.
type Wallet interface {
	// Name identifies the adapter in logs.
	Name() string

	// RequestAccounts asks the wallet for account access.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the wallet's active chain id in hex.
	ChainID(ctx context.Context) (string, error)

	// SwitchChain asks the wallet to activate chainIDHex. A chain the wallet
	// does not know yields domain.ErrUnrecognizedChain.
	SwitchChain(ctx context.Context, chainIDHex string) error

	// AddChain registers a chain definition with the wallet.
	AddChain(ctx context.Context, params domain.ChainParams) error

	// SendTransaction signs and submits tx, returning its hash.
	SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error)

	// Backend returns the read side of the active chain.
	Backend() Backend

	// SubscribeAccounts delivers the account list whenever it changes.
	SubscribeAccounts(ch chan<- []common.Address) event.Subscription

	// SubscribeChain delivers the hex chain id whenever it changes.
	SubscribeChain(ch chan<- string) event.Subscription

	Close()
}

// Connector produces a Wallet. A nil Connector means no provider is configured.
type Connector interface {
	Connect(ctx context.Context) (Wallet, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Wallet, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context) (Wallet, error) { return f(ctx) }

// Signer submits transactions for the active account and waits for finality.
type Signer interface {
	Account() common.Address
	Send(ctx context.Context, tx domain.TxRequest) (common.Hash, error)
	WaitConfirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TokenContract is the asset contract.
type TokenContract interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	MaxSupply(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error)
}

// SaleContract is the exchange contract.
type SaleContract interface {
	Address() common.Address
	BuyPrice(ctx context.Context) (*big.Int, error)
	SellPrice(ctx context.Context) (*big.Int, error)

	// Balance is the native currency held by the contract.
	Balance(ctx context.Context) (*big.Int, error)

	// NativeBalance reads the native balance of any account.
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)

	BuyTokens(ctx context.Context, amount, value *big.Int) (common.Hash, error)
	SellTokens(ctx context.Context, amount *big.Int) (common.Hash, error)
	WithdrawETH(ctx context.Context, amount *big.Int) (common.Hash, error)

	// Deposit sends value straight to the contract, which buys tokens with it.
	Deposit(ctx context.Context, value *big.Int) (common.Hash, error)
}

// ContractBinder builds contract handles for a wallet and its signer.
type ContractBinder interface {
	Bind(w Wallet, s Signer) (SaleContract, TokenContract, error)
}

// NetworkGuard keeps the wallet on the target network.
type NetworkGuard interface {
	EnsureCorrectNetwork(ctx context.Context) error
}

// SessionProvider hands out the shared session.
type SessionProvider interface {
	Session(ctx context.Context) (*Session, error)
}
