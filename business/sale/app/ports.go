// Package app contains the quote engine, the exchange orchestrator and the
// aggregate reader for the sale context.
package app

import (
	"context"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

const (
	tracerName = "sale"
	meterName  = "sale"
)

// Sessions hands out the shared wallet session.
type Sessions = connectionApp.SessionProvider

// Guard keeps the wallet on the target network.
type Guard = connectionApp.NetworkGuard

// gate runs the network check and returns the session. Every read and write
// path in this package goes through it first.
func gate(ctx context.Context, guard Guard, sessions Sessions) (*connectionApp.Session, error) {
	if err := guard.EnsureCorrectNetwork(ctx); err != nil {
		return nil, err
	}
	return sessions.Session(ctx)
}

// readFailed tags a failed read. Errors that already carry a code keep it.
func readFailed(err error, what string) error {
	if err == nil {
		return nil
	}
	return apperror.Wrap(err, apperror.CodeContractCallFailed, what)
}
