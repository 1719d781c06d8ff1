// Package rpcwallet talks to an EIP-1193 style wallet exposed over JSON-RPC,
// such as a desktop wallet's local endpoint.
package rpcwallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/httpclient"
	"github.com/fd1az/tokensale-client/internal/logger"
)

const tracerName = "rpcwallet"

// EIP-1193 provider error codes.
const (
	codeUserRejected      = 4001
	codeUnrecognizedChain = 4902
	codeInternal          = -32603
)

const probeTimeout = 5 * time.Second

var _ app.Wallet = (*Wallet)(nil)

// Config holds the wallet endpoint settings.
type Config struct {
	URL string

	// PollInterval drives change detection when the endpoint cannot push
	// accountsChanged/chainChanged notifications.
	PollInterval time.Duration
}

// DefaultConfig returns a config for url.
func DefaultConfig(url string) Config {
	return Config{URL: url, PollInterval: 2 * time.Second}
}

// Wallet is an app.Wallet backed by a JSON-RPC wallet endpoint.
type Wallet struct {
	cfg    Config
	client *rpc.Client
	eth    *ethclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer

	accountFeed event.Feed
	chainFeed   event.Feed
	scope       event.SubscriptionScope

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewConnector returns a connector that dials cfg.URL on first use.
func NewConnector(cfg Config, log logger.LoggerInterface) app.Connector {
	return app.ConnectorFunc(func(ctx context.Context) (app.Wallet, error) {
		return Dial(ctx, cfg, log)
	})
}

// Dial connects to the wallet endpoint and checks that it answers.
func Dial(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Wallet, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: empty wallet url", domain.ErrNoProvider)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig(cfg.URL).PollInterval
	}

	var opts []rpc.ClientOption
	if strings.HasPrefix(cfg.URL, "http://") || strings.HasPrefix(cfg.URL, "https://") {
		// No request timeout: approvals wait on the user.
		hc, err := httpclient.New(
			httpclient.WithProviderName("wallet"),
			httpclient.WithRequestTimeout(0),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}
		opts = append(opts, rpc.WithHTTPClient(hc))
	}

	client, err := rpc.DialOptions(ctx, cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrNoProvider, cfg.URL, err)
	}

	w := &Wallet{
		cfg:    cfg,
		client: client,
		eth:    ethclient.NewClient(client),
		logger: log,
		tracer: otel.Tracer(tracerName),
		quit:   make(chan struct{}),
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := w.ChainID(probeCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s not answering: %w", domain.ErrNoProvider, cfg.URL, err)
	}

	w.wg.Add(1)
	go w.watch()

	log.Info(ctx, "connected to wallet endpoint", "url", cfg.URL)
	return w, nil
}

// Name implements app.Wallet.
func (w *Wallet) Name() string {
	return "rpc:" + w.cfg.URL
}

// RequestAccounts implements app.Wallet.
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID implements app.Wallet.
func (w *Wallet) ChainID(ctx context.Context) (string, error) {
	var id string
	if err := w.call(ctx, &id, "eth_chainId"); err != nil {
		return "", err
	}
	return id, nil
}

// SwitchChain implements app.Wallet.
func (w *Wallet) SwitchChain(ctx context.Context, chainIDHex string) error {
	return w.call(ctx, nil, "wallet_switchEthereumChain", map[string]string{"chainId": chainIDHex})
}

// AddChain implements app.Wallet.
func (w *Wallet) AddChain(ctx context.Context, params domain.ChainParams) error {
	return w.call(ctx, nil, "wallet_addEthereumChain", params)
}

type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
}

// SendTransaction implements app.Wallet. Gas and fees are left to the wallet.
func (w *Wallet) SendTransaction(ctx context.Context, tx domain.TxRequest) (common.Hash, error) {
	args := sendTxArgs{From: tx.From, To: tx.To, Data: tx.Data}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(new(big.Int).Set(tx.Value))
	}

	var hash common.Hash
	if err := w.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Backend implements app.Wallet.
func (w *Wallet) Backend() app.Backend {
	return w.eth
}

// SubscribeAccounts implements app.Wallet.
func (w *Wallet) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return w.scope.Track(w.accountFeed.Subscribe(ch))
}

// SubscribeChain implements app.Wallet.
func (w *Wallet) SubscribeChain(ch chan<- string) event.Subscription {
	return w.scope.Track(w.chainFeed.Subscribe(ch))
}

// Close stops the event loop and the client.
func (w *Wallet) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
		w.scope.Close()
		w.wg.Wait()
		w.client.Close()
	})
}

func (w *Wallet) call(ctx context.Context, result any, method string, args ...any) error {
	ctx, span := w.tracer.Start(ctx, "wallet."+method,
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
	defer span.End()

	if err := w.client.CallContext(ctx, result, method, args...); err != nil {
		err = mapError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, method+" failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// mapError tags provider error codes with the domain sentinels while keeping
// the original error in the chain for its message.
func mapError(err error) error {
	switch providerCode(err) {
	case codeUnrecognizedChain:
		return fmt.Errorf("%w: %w", domain.ErrUnrecognizedChain, err)
	case codeUserRejected:
		return fmt.Errorf("%w: %w", domain.ErrUserRejected, err)
	}
	return err
}

// providerCode returns the EIP-1193 code of err. Some wallets report
// provider errors as -32603 with the real code under data.originalError.
func providerCode(err error) int {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return 0
	}
	code := rpcErr.ErrorCode()
	if code != codeInternal {
		return code
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return code
	}
	data, ok := dataErr.ErrorData().(map[string]any)
	if !ok {
		return code
	}
	orig, ok := data["originalError"].(map[string]any)
	if !ok {
		return code
	}
	if c, ok := orig["code"].(float64); ok {
		return int(c)
	}
	return code
}

// watch forwards wallet notifications to the feeds, by subscription when the
// transport supports it and by polling otherwise.
func (w *Wallet) watch() {
	defer w.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	if w.watchPush(ctx) {
		return
	}
	w.watchPoll(ctx)
}

// watchPush returns true when it ran until shutdown, false when the caller
// should fall back to polling.
func (w *Wallet) watchPush(ctx context.Context) bool {
	accounts := make(chan []common.Address, 4)
	accSub, err := w.client.Subscribe(ctx, "eth", accounts, "accountsChanged")
	if err != nil {
		if !errors.Is(err, rpc.ErrNotificationsUnsupported) {
			w.logger.Debug(ctx, "wallet rejected accountsChanged subscription", "error", err)
		}
		return false
	}
	defer accSub.Unsubscribe()

	chains := make(chan string, 4)
	chainSub, err := w.client.Subscribe(ctx, "eth", chains, "chainChanged")
	if err != nil {
		w.logger.Debug(ctx, "wallet rejected chainChanged subscription", "error", err)
		return false
	}
	defer chainSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return true
		case list := <-accounts:
			w.accountFeed.Send(list)
		case id := <-chains:
			w.chainFeed.Send(id)
		case err := <-accSub.Err():
			w.logger.Warn(ctx, "wallet account subscription dropped, polling instead", "error", err)
			return ctx.Err() != nil
		case err := <-chainSub.Err():
			w.logger.Warn(ctx, "wallet chain subscription dropped, polling instead", "error", err)
			return ctx.Err() != nil
		}
	}
}

func (w *Wallet) watchPoll(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var (
		lastAccounts []common.Address
		lastChain    string
		seeded       bool
	)

	for {
		var accounts []common.Address
		accErr := w.client.CallContext(ctx, &accounts, "eth_accounts")
		chain, chainErr := w.ChainID(ctx)

		switch {
		case ctx.Err() != nil:
			return
		case !seeded && accErr == nil && chainErr == nil:
			lastAccounts, lastChain, seeded = accounts, chain, true
		case seeded:
			if accErr == nil && !slices.Equal(accounts, lastAccounts) {
				lastAccounts = accounts
				w.accountFeed.Send(accounts)
			}
			if chainErr == nil && !strings.EqualFold(chain, lastChain) {
				lastChain = chain
				w.chainFeed.Send(chain)
			}
		}
		if accErr != nil || chainErr != nil {
			w.logger.Debug(ctx, "wallet poll failed", "accounts_error", accErr, "chain_error", chainErr)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
