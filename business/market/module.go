// Package market implements the passive refresh of the sale figures shown
// by the dashboard and the watch command.
package market

import (
	"context"

	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	"github.com/fd1az/tokensale-client/business/market/app"
	marketDI "github.com/fd1az/tokensale-client/business/market/di"
	"github.com/fd1az/tokensale-client/business/market/infra"
	saleDI "github.com/fd1az/tokensale-client/business/sale/di"
	"github.com/fd1az/tokensale-client/internal/config"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		if sr.Has(marketDI.ReporterKey) {
			if r, ok := sr.Get(marketDI.ReporterKey).(app.Reporter); ok {
				return r
			}
		}
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter(nil)
		}
		return infra.NewConsoleReporter(nil)
	})

	di.RegisterToken(c, marketDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		mon, err := app.NewMonitor(
			saleDI.GetReader(sr),
			connectionDI.GetWatcher(sr),
			marketDI.GetReporter(sr),
			app.MonitorConfig{RefreshInterval: cfg.Monitor.RefreshInterval},
			log,
		)
		if err != nil {
			panic("failed to create monitor: " + err.Error())
		}
		return mon
	})

	return nil
}

// Startup registers the stop hook. The loop itself is started by whichever
// front end needs it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mon := marketDI.GetMonitor(mono.Services())
	mono.OnClose(func() {
		if err := mon.Stop(); err != nil {
			mono.Logger().Warn(ctx, "monitor stop failed", "error", err)
		}
	})

	mono.Logger().Info(ctx, "market module started",
		"refresh_interval", mono.Config().Monitor.RefreshInterval,
	)
	return nil
}
