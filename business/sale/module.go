// Package sale implements the token sale bounded context: quoting, the
// buy and sell operations, and the aggregate reads.
package sale

import (
	"context"

	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	"github.com/fd1az/tokensale-client/business/sale/app"
	saleDI "github.com/fd1az/tokensale-client/business/sale/di"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/monolith"
)

// Module implements the sale bounded context.
type Module struct{}

// RegisterServices registers all sale services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, saleDI.QuoteEngine, func(sr di.ServiceRegistry) *app.QuoteEngine {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewQuoteEngine(connectionDI.GetSessions(sr), connectionDI.GetGuard(sr), log)
	})

	di.RegisterToken(c, saleDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		log := sr.Get("logger").(logger.LoggerInterface)
		o, err := app.NewOrchestrator(
			connectionDI.GetSessions(sr),
			connectionDI.GetGuard(sr),
			connectionDI.GetTarget(sr),
			log,
		)
		if err != nil {
			panic("failed to create orchestrator: " + err.Error())
		}
		return o
	})

	di.RegisterToken(c, saleDI.Reader, func(sr di.ServiceRegistry) *app.Reader {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewReader(connectionDI.GetSessions(sr), connectionDI.GetGuard(sr), log)
	})

	return nil
}

// Startup initializes the sale module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "sale module started",
		"sale", cfg.Contracts.SaleAddress().Hex(),
		"token", cfg.Contracts.TokenAddress().Hex(),
	)
	return nil
}
