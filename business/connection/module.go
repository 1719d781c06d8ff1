// Package connection implements the wallet connection bounded context:
// the shared session, the network guard and wallet event tracking.
package connection

import (
	"context"
	"os"

	"github.com/fd1az/tokensale-client/business/connection/app"
	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/business/connection/infra/contracts"
	"github.com/fd1az/tokensale-client/business/connection/infra/keystorewallet"
	"github.com/fd1az/tokensale-client/business/connection/infra/rpcwallet"
	"github.com/fd1az/tokensale-client/internal/config"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/monolith"
	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

// Module implements the connection bounded context.
type Module struct{}

// RegisterServices registers all connection services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, connectionDI.Target, func(sr di.ServiceRegistry) domain.NetworkTarget {
		cfg := sr.Get("config").(*config.Config)
		return TargetFromConfig(cfg.Network)
	})

	// Register Connector (private - nil when no wallet is configured)
	di.RegisterToken(c, connectionDI.Connector, func(sr di.ServiceRegistry) app.Connector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		switch cfg.Wallet.Kind {
		case config.WalletRPC:
			return rpcwallet.NewConnector(rpcwallet.Config{
				URL:          cfg.Wallet.URL,
				PollInterval: cfg.Wallet.EventPollInterval,
			}, log)
		case config.WalletKeystore:
			return keystorewallet.NewConnector(keystorewallet.Config{
				KeystoreDir:  cfg.Wallet.KeystoreDir,
				Account:      cfg.Wallet.AccountAddress(),
				Passphrase:   os.Getenv(cfg.Wallet.PassphraseEnv),
				PassphraseFn: passphrasePrompt(sr),
				NodeURL:      cfg.Network.RPCURLs[0],
			}, log)
		default:
			return nil
		}
	})

	di.RegisterToken(c, connectionDI.ReadLimiter, func(sr di.ServiceRegistry) *ratelimit.Limiter {
		cfg := sr.Get("config").(*config.Config)
		return ratelimit.New(cfg.RPC.RequestsPerSecond, cfg.RPC.Burst)
	})

	di.RegisterToken(c, connectionDI.Binder, func(sr di.ServiceRegistry) app.ContractBinder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return contracts.NewBinder(
			cfg.Contracts.SaleAddress(),
			cfg.Contracts.TokenAddress(),
			connectionDI.GetReadLimiter(sr),
			log,
		)
	})

	// Register SessionManager (public - the one session every module shares)
	di.RegisterToken(c, connectionDI.Sessions, func(sr di.ServiceRegistry) *app.SessionManager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewSessionManager(
			connectionDI.GetConnector(sr),
			connectionDI.GetBinder(sr),
			app.SessionConfig{Signer: app.SignerConfig{PollInterval: cfg.Wallet.ConfirmPollInterval}},
			log,
		)
	})

	di.RegisterToken(c, connectionDI.Guard, func(sr di.ServiceRegistry) *app.Guard {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewGuard(connectionDI.GetSessions(sr), connectionDI.GetTarget(sr), log)
	})

	di.RegisterToken(c, connectionDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewWatcher(connectionDI.GetSessions(sr), connectionDI.GetGuard(sr), log)
	})

	return nil
}

// Startup registers the release hooks. The session itself is established
// lazily by the first operation that needs it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	target := connectionDI.GetTarget(mono.Services())
	cfg := mono.Config()

	sessions := connectionDI.GetSessions(mono.Services())
	watcher := connectionDI.GetWatcher(mono.Services())
	mono.OnClose(func() {
		watcher.Stop()
		sessions.Close()
	})

	log.Info(ctx, "connection module started",
		"wallet_kind", cfg.Wallet.Kind,
		"target_chain", target.ChainIDHex(),
		"target_name", target.Name(),
	)
	return nil
}

// TargetFromConfig builds the network target from configuration.
func TargetFromConfig(n config.NetworkConfig) domain.NetworkTarget {
	return domain.NewNetworkTarget(n.ChainID, n.ChainName,
		domain.NativeCurrency{
			Name:     n.NativeCurrency.Name,
			Symbol:   n.NativeCurrency.Symbol,
			Decimals: n.NativeCurrency.Decimals,
		},
		n.RPCURLs,
		n.BlockExplorerURLs,
	)
}

func passphrasePrompt(sr di.ServiceRegistry) func() (string, error) {
	if !sr.Has(connectionDI.PassphrasePromptKey) {
		return nil
	}
	prompt, _ := sr.Get(connectionDI.PassphrasePromptKey).(func() (string, error))
	return prompt
}
