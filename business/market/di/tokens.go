// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/tokensale-client/business/market/app"
	"github.com/fd1az/tokensale-client/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("market.Monitor")
)

// Private dependency tokens - internal to market module
var (
	Reporter = di.NewToken[app.Reporter]("market:reporter")
)

// ReporterKey is the container key under which the binary may register its
// own app.Reporter. Without one the reporter follows the UI mode.
const ReporterKey = "market_reporter"

// Helper functions for type-safe access
func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
