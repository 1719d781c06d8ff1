package main

import (
	"context"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	"github.com/fd1az/tokensale-client/internal/config"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/health"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// startHealth serves the health endpoints for long-running modes. A
// non-positive port disables them.
func startHealth(ctx context.Context, sr di.ServiceRegistry) func() {
	cfg := sr.Get("config").(*config.Config)
	log := sr.Get("logger").(logger.LoggerInterface)
	if cfg.Telemetry.HealthPort <= 0 {
		return func() {}
	}

	sessions := connectionDI.GetSessions(sr)
	srv := health.NewServer(cfg.Telemetry.HealthPort, version, log)
	srv.RegisterCheck("wallet", connectionApp.WalletCheck(sessions))
	srv.RegisterCheck("network", connectionApp.NetworkCheck(sessions, connectionDI.GetTarget(sr)))
	srv.Start(ctx)

	return func() {
		if err := srv.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "health server shutdown failed", "error", err)
		}
	}
}
