package app_test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
)

// fakeWallet records every wallet interaction.
type fakeWallet struct {
	mu sync.Mutex

	accounts   []common.Address
	accountErr error
	chainID    string
	known      map[string]bool
	switchErr  error // returned for known chains
	addErr     error
	sendErr    error
	sendHash   common.Hash
	receipts   []receiptResult

	calls  []string
	sent   []domain.TxRequest
	closed bool

	accountFeed event.Feed
	chainFeed   event.Feed
}

type receiptResult struct {
	receipt *types.Receipt
	err     error
}

func newFakeWallet(chainID string) *fakeWallet {
	return &fakeWallet{
		accounts: []common.Address{common.HexToAddress("0xa11ce")},
		chainID:  chainID,
		known:    map[string]bool{chainID: true},
	}
}

func (w *fakeWallet) record(call string) {
	w.calls = append(w.calls, call)
}

func (w *fakeWallet) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWallet) Name() string { return "fake" }

func (w *fakeWallet) RequestAccounts(context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("eth_requestAccounts")
	return w.accounts, w.accountErr
}

func (w *fakeWallet) ChainID(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("eth_chainId")
	return w.chainID, nil
}

func (w *fakeWallet) SwitchChain(_ context.Context, chainIDHex string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("wallet_switchEthereumChain")
	if !w.known[chainIDHex] {
		return domain.ErrUnrecognizedChain
	}
	if w.switchErr != nil {
		return w.switchErr
	}
	w.chainID = chainIDHex
	return nil
}

func (w *fakeWallet) AddChain(_ context.Context, params domain.ChainParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("wallet_addEthereumChain")
	if w.addErr != nil {
		return w.addErr
	}
	w.known[params.ChainID] = true
	return nil
}

func (w *fakeWallet) SendTransaction(_ context.Context, tx domain.TxRequest) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("eth_sendTransaction")
	if w.sendErr != nil {
		return common.Hash{}, w.sendErr
	}
	w.sent = append(w.sent, tx)
	return w.sendHash, nil
}

func (w *fakeWallet) Backend() app.Backend { return w }

func (w *fakeWallet) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return w.accountFeed.Subscribe(ch)
}

func (w *fakeWallet) SubscribeChain(ch chan<- string) event.Subscription {
	return w.chainFeed.Subscribe(ch)
}

func (w *fakeWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *fakeWallet) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (w *fakeWallet) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

// TransactionReceipt pops the next scripted result; once exhausted it keeps
// reporting not found.
func (w *fakeWallet) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.record("eth_getTransactionReceipt")
	if len(w.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	next := w.receipts[0]
	w.receipts = w.receipts[1:]
	return next.receipt, next.err
}

// stubBinder returns address-only contract handles.
type stubBinder struct{}

func (stubBinder) Bind(app.Wallet, app.Signer) (app.SaleContract, app.TokenContract, error) {
	return stubSale{}, stubToken{}, nil
}

type stubSale struct{ app.SaleContract }

func (stubSale) Address() common.Address { return common.HexToAddress("0x5a1e") }

type stubToken struct{ app.TokenContract }

func (stubToken) Address() common.Address { return common.HexToAddress("0x70ce") }

// staticSessions hands out a fixed session.
type staticSessions struct {
	sess *app.Session
	err  error
}

func (s staticSessions) Session(context.Context) (*app.Session, error) {
	return s.sess, s.err
}

func sessionFor(w *fakeWallet) *app.Session {
	return &app.Session{
		Provider: w,
		Signer:   app.NewWalletSigner(w, w.accounts[0], app.DefaultSignerConfig(), nopLogger),
		Sale:     stubSale{},
		Token:    stubToken{},
	}
}
