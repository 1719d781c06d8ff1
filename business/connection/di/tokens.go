// Package di contains dependency injection tokens for the connection context.
package di

import (
	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	Sessions = di.NewToken[*app.SessionManager]("connection.Sessions")
	Guard    = di.NewToken[*app.Guard]("connection.Guard")
	Watcher  = di.NewToken[*app.Watcher]("connection.Watcher")
	Target   = di.NewToken[domain.NetworkTarget]("connection.Target")
)

// Private dependency tokens - internal to connection module
var (
	Connector   = di.NewToken[app.Connector]("connection:connector")
	Binder      = di.NewToken[app.ContractBinder]("connection:binder")
	ReadLimiter = di.NewToken[*ratelimit.Limiter]("connection:readLimiter")
)

// PassphrasePromptKey is the container key under which the binary may
// register a func() (string, error) used when the passphrase env var is empty.
const PassphrasePromptKey = "passphrase_prompt"

// Helper functions for type-safe access
func GetSessions(c di.ServiceRegistry) *app.SessionManager {
	return di.GetToken(c, Sessions)
}

func GetGuard(c di.ServiceRegistry) *app.Guard {
	return di.GetToken(c, Guard)
}

func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}

func GetTarget(c di.ServiceRegistry) domain.NetworkTarget {
	return di.GetToken(c, Target)
}

func GetConnector(c di.ServiceRegistry) app.Connector {
	return di.GetToken(c, Connector)
}

func GetBinder(c di.ServiceRegistry) app.ContractBinder {
	return di.GetToken(c, Binder)
}

func GetReadLimiter(c di.ServiceRegistry) *ratelimit.Limiter {
	return di.GetToken(c, ReadLimiter)
}
