// Package di contains dependency injection tokens for the sale context.
package di

import (
	"github.com/fd1az/tokensale-client/business/sale/app"
	"github.com/fd1az/tokensale-client/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteEngine  = di.NewToken[*app.QuoteEngine]("sale.QuoteEngine")
	Orchestrator = di.NewToken[*app.Orchestrator]("sale.Orchestrator")
	Reader       = di.NewToken[*app.Reader]("sale.Reader")
)

// Helper functions for type-safe access
func GetQuoteEngine(c di.ServiceRegistry) *app.QuoteEngine {
	return di.GetToken(c, QuoteEngine)
}

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetReader(c di.ServiceRegistry) *app.Reader {
	return di.GetToken(c, Reader)
}
