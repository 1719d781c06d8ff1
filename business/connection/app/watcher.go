package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// AccountSetter is implemented by signers whose account follows the wallet.
type AccountSetter interface {
	SetAccount(common.Address)
}

// Watcher follows wallet notifications. Account changes move the signer to
// the new account; chain changes re-run the network guard. Each notification
// is republished as a domain.WalletEvent so views know to refresh.
type Watcher struct {
	sessions SessionProvider
	guard    NetworkGuard
	logger   logger.LoggerInterface

	feed  event.Feed
	scope event.SubscriptionScope

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher creates a Watcher.
func NewWatcher(sessions SessionProvider, guard NetworkGuard, log logger.LoggerInterface) *Watcher {
	return &Watcher{
		sessions: sessions,
		guard:    guard,
		logger:   log,
	}
}

// Subscribe registers ch for wallet events.
func (w *Watcher) Subscribe(ch chan<- domain.WalletEvent) event.Subscription {
	return w.scope.Track(w.feed.Subscribe(ch))
}

// Start subscribes to the session's wallet. It is a no-op when already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	sess, err := w.sessions.Session(ctx)
	if err != nil {
		return err
	}

	accounts := make(chan []common.Address, 4)
	chains := make(chan string, 4)
	accSub := sess.Provider.SubscribeAccounts(accounts)
	chainSub := sess.Provider.SubscribeChain(chains)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.run(runCtx, sess, accounts, chains, accSub, chainSub)

	w.logger.Info(ctx, "watching wallet events", "wallet", sess.Provider.Name())
	return nil
}

// Stop ends the watch loop and closes every subscription.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	w.scope.Close()
}

func (w *Watcher) run(
	ctx context.Context,
	sess *Session,
	accounts <-chan []common.Address,
	chains <-chan string,
	accSub, chainSub event.Subscription,
) {
	defer close(w.done)
	defer accSub.Unsubscribe()
	defer chainSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case list := <-accounts:
			w.onAccounts(ctx, sess, list)

		case chainID := <-chains:
			w.onChain(ctx, chainID)

		case err := <-accSub.Err():
			if err != nil {
				w.logger.Warn(ctx, "account subscription ended", "error", err)
			}
			return

		case err := <-chainSub.Err():
			if err != nil {
				w.logger.Warn(ctx, "chain subscription ended", "error", err)
			}
			return
		}
	}
}

func (w *Watcher) onAccounts(ctx context.Context, sess *Session, list []common.Address) {
	ev := domain.WalletEvent{Kind: domain.EventAccountChanged}
	if len(list) > 0 {
		ev.Account = list[0]
		if setter, ok := sess.Signer.(AccountSetter); ok {
			setter.SetAccount(list[0])
		}
		w.logger.Info(ctx, "wallet account changed", "account", list[0].Hex())
	} else {
		w.logger.Warn(ctx, "wallet exposes no account")
	}
	w.feed.Send(ev)
}

func (w *Watcher) onChain(ctx context.Context, chainID string) {
	w.logger.Info(ctx, "wallet chain changed", "chain_id", chainID)
	w.feed.Send(domain.WalletEvent{Kind: domain.EventChainChanged, ChainID: chainID})

	err := w.guard.EnsureCorrectNetwork(ctx)
	if err != nil {
		w.logger.Warn(ctx, "network check after chain change failed", "error", err)
	}
	w.feed.Send(domain.WalletEvent{Kind: domain.EventNetworkChecked, ChainID: chainID, Err: err})
}
