package app

import (
	"context"
	"fmt"

	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/health"
)

// WalletCheck reports whether a session can be established and which
// account it signs for.
func WalletCheck(sessions SessionProvider) health.CheckFunc {
	return func(ctx context.Context) (string, error) {
		sess, err := sessions.Session(ctx)
		if err != nil {
			return "", err
		}
		return sess.Signer.Account().Hex(), nil
	}
}

// NetworkCheck reports whether the wallet is on target. It only reads the
// active chain; it never asks the wallet to switch.
func NetworkCheck(sessions SessionProvider, target domain.NetworkTarget) health.CheckFunc {
	return func(ctx context.Context) (string, error) {
		sess, err := sessions.Session(ctx)
		if err != nil {
			return "", err
		}
		current, err := sess.Provider.ChainID(ctx)
		if err != nil {
			return "", err
		}
		if !target.Matches(current) {
			return current, fmt.Errorf("wallet on %s, want %s", current, target.ChainIDHex())
		}
		return current, nil
	}
}
