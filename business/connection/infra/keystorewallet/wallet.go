// Package keystorewallet is a wallet backed by a local go-ethereum keystore.
// It signs locally and submits through a node RPC endpoint per known chain.
package keystorewallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/httpclient"
	"github.com/fd1az/tokensale-client/internal/logger"
)

var _ app.Wallet = (*Wallet)(nil)

// Config holds keystore wallet settings.
type Config struct {
	KeystoreDir string

	// Account selects the signing account; zero picks the first one.
	Account common.Address

	Passphrase string

	// PassphraseFn is asked for the passphrase when Passphrase is empty.
	PassphraseFn func() (string, error)

	// NodeURL is the RPC endpoint of the chain the wallet starts on.
	NodeURL string

	// ScryptN and ScryptP tune key decryption; zero means the standard values.
	ScryptN int
	ScryptP int
}

type chainConn struct {
	id     *big.Int
	url    string
	client *ethclient.Client
}

// Wallet is an app.Wallet that knows only the chains it has been told about.
type Wallet struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase string
	logger     logger.LoggerInterface

	mu     sync.RWMutex
	chains map[string]*chainConn // keyed by canonical hex chain id
	active string

	accountFeed event.Feed
	chainFeed   event.Feed
	scope       event.SubscriptionScope
}

// NewConnector returns a connector that opens the keystore on first use.
func NewConnector(cfg Config, log logger.LoggerInterface) app.Connector {
	return app.ConnectorFunc(func(ctx context.Context) (app.Wallet, error) {
		return Open(ctx, cfg, log)
	})
}

// Open loads the keystore, checks the passphrase and connects to NodeURL.
func Open(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Wallet, error) {
	scryptN, scryptP := cfg.ScryptN, cfg.ScryptP
	if scryptN == 0 {
		scryptN, scryptP = keystore.StandardScryptN, keystore.StandardScryptP
	}
	ks := keystore.NewKeyStore(cfg.KeystoreDir, scryptN, scryptP)

	account, err := pickAccount(ks, cfg.Account)
	if err != nil {
		return nil, err
	}

	passphrase := cfg.Passphrase
	if passphrase == "" && cfg.PassphraseFn != nil {
		if passphrase, err = cfg.PassphraseFn(); err != nil {
			return nil, fmt.Errorf("%w: read passphrase: %w", domain.ErrNoProvider, err)
		}
	}

	// Fail now rather than at the first transaction.
	if err := ks.Unlock(account, passphrase); err != nil {
		return nil, fmt.Errorf("%w: unlock %s: %w", domain.ErrNoProvider, account.Address.Hex(), err)
	}
	if err := ks.Lock(account.Address); err != nil {
		return nil, fmt.Errorf("lock %s: %w", account.Address.Hex(), err)
	}

	w := &Wallet{
		ks:         ks,
		account:    account,
		passphrase: passphrase,
		logger:     log,
		chains:     make(map[string]*chainConn),
	}

	conn, err := dialChain(ctx, cfg.NodeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoProvider, err)
	}
	key := hexutil.EncodeBig(conn.id)
	w.chains[key] = conn
	w.active = key

	log.Info(ctx, "keystore wallet opened",
		"account", account.Address.Hex(),
		"chain_id", key,
		"node", cfg.NodeURL,
	)
	return w, nil
}

func pickAccount(ks *keystore.KeyStore, want common.Address) (accounts.Account, error) {
	all := ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, fmt.Errorf("%w: keystore holds no account", domain.ErrNoProvider)
	}
	if want == (common.Address{}) {
		return all[0], nil
	}
	for _, a := range all {
		if a.Address == want {
			return a, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("%w: account %s not in keystore", domain.ErrNoProvider, want.Hex())
}

func dialChain(ctx context.Context, url string) (*chainConn, error) {
	var opts []rpc.ClientOption
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		hc, err := httpclient.New(httpclient.WithProviderName("node"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithHTTPClient(hc))
	}

	rc, err := rpc.DialOptions(ctx, url, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	client := ethclient.NewClient(rc)

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id from %s: %w", url, err)
	}
	return &chainConn{id: id, url: url, client: client}, nil
}

var errClosed = errors.New("keystore wallet closed")

func (w *Wallet) current() (*chainConn, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	conn, ok := w.chains[w.active]
	if !ok {
		return nil, errClosed
	}
	return conn, nil
}

// Name implements app.Wallet.
func (w *Wallet) Name() string {
	return "keystore:" + w.account.Address.Hex()
}

// RequestAccounts implements app.Wallet.
func (w *Wallet) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{w.account.Address}, nil
}

// ChainID implements app.Wallet.
func (w *Wallet) ChainID(context.Context) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active, nil
}

// SwitchChain implements app.Wallet.
func (w *Wallet) SwitchChain(_ context.Context, chainIDHex string) error {
	key := domain.CanonicalChainID(chainIDHex)

	w.mu.Lock()
	if _, ok := w.chains[key]; !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnrecognizedChain, chainIDHex)
	}
	changed := w.active != key
	w.active = key
	w.mu.Unlock()

	if changed {
		w.chainFeed.Send(key)
	}
	return nil
}

// AddChain implements app.Wallet. The first RPC URL that reports the declared
// chain id is kept.
func (w *Wallet) AddChain(ctx context.Context, params domain.ChainParams) error {
	key := domain.CanonicalChainID(params.ChainID)
	if len(params.RPCURLs) == 0 {
		return fmt.Errorf("chain %s has no rpc url", key)
	}

	var lastErr error
	for _, url := range params.RPCURLs {
		conn, err := dialChain(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		if got := hexutil.EncodeBig(conn.id); got != key {
			conn.client.Close()
			lastErr = fmt.Errorf("%s serves chain %s, not %s", url, got, key)
			continue
		}

		w.mu.Lock()
		if old, ok := w.chains[key]; ok {
			old.client.Close()
		}
		w.chains[key] = conn
		w.mu.Unlock()

		w.logger.Info(ctx, "chain registered", "chain_id", key, "name", params.ChainName, "node", url)
		return nil
	}
	return lastErr
}

// SendTransaction implements app.Wallet with an EIP-1559 transaction priced
// from node suggestions.
func (w *Wallet) SendTransaction(ctx context.Context, req domain.TxRequest) (common.Hash, error) {
	conn, err := w.current()
	if err != nil {
		return common.Hash{}, err
	}
	from := w.account.Address
	to := req.To
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := conn.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("nonce: %w", err)
	}
	gas, err := conn.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: req.Data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	tip, err := conn.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest tip: %w", err)
	}
	head, err := conn.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   conn.id,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      req.Data,
		})
	} else {
		price, err := conn.client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		})
	}

	signed, err := w.ks.SignTxWithPassphrase(w.account, w.passphrase, tx, conn.id)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := conn.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}

// Backend implements app.Wallet. It follows the active chain.
func (w *Wallet) Backend() app.Backend {
	return activeBackend{w: w}
}

// SubscribeAccounts implements app.Wallet. The keystore account never changes.
func (w *Wallet) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return w.scope.Track(w.accountFeed.Subscribe(ch))
}

// SubscribeChain implements app.Wallet.
func (w *Wallet) SubscribeChain(ch chan<- string) event.Subscription {
	return w.scope.Track(w.chainFeed.Subscribe(ch))
}

// Close implements app.Wallet.
func (w *Wallet) Close() {
	w.scope.Close()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.chains {
		c.client.Close()
	}
	w.chains = map[string]*chainConn{}
}

// activeBackend resolves the active chain on every call.
type activeBackend struct {
	w *Wallet
}

func (b activeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	conn, err := b.w.current()
	if err != nil {
		return nil, err
	}
	return conn.client.CallContract(ctx, call, blockNumber)
}

func (b activeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	conn, err := b.w.current()
	if err != nil {
		return nil, err
	}
	return conn.client.BalanceAt(ctx, account, blockNumber)
}

func (b activeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	conn, err := b.w.current()
	if err != nil {
		return nil, err
	}
	return conn.client.TransactionReceipt(ctx, txHash)
}
