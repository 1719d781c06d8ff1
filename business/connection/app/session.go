package app

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// Session is the one provider/signer/contract set shared by every operation.
// It is published whole; callers never see a partially built Session.
type Session struct {
	Provider Wallet
	Signer   Signer
	Sale     SaleContract
	Token    TokenContract
}

// SessionConfig holds the knobs for establishing a session.
type SessionConfig struct {
	Signer SignerConfig
}

// SessionManager establishes the Session once and then hands out the same
// value. Concurrent first callers share a single establishment; a failed
// attempt is not remembered.
type SessionManager struct {
	connector Connector
	binder    ContractBinder
	cfg       SessionConfig
	logger    logger.LoggerInterface

	current atomic.Pointer[Session]
	group   singleflight.Group
}

// NewSessionManager creates a SessionManager. A nil connector makes every
// Session call fail with PROVIDER_UNAVAILABLE.
func NewSessionManager(connector Connector, binder ContractBinder, cfg SessionConfig, log logger.LoggerInterface) *SessionManager {
	return &SessionManager{
		connector: connector,
		binder:    binder,
		cfg:       cfg,
		logger:    log,
	}
}

// Session returns the shared session, establishing it on first use.
func (m *SessionManager) Session(ctx context.Context) (*Session, error) {
	if s := m.current.Load(); s != nil {
		return s, nil
	}
	if m.connector == nil {
		return nil, apperror.ProviderUnavailable("no wallet configured", domain.ErrNoProvider)
	}

	v, err, shared := m.group.Do("session", func() (any, error) {
		if s := m.current.Load(); s != nil {
			return s, nil
		}
		s, err := m.establish(ctx)
		if err != nil {
			return nil, err
		}
		m.current.Store(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug(ctx, "joined in-flight session establishment")
	}
	return v.(*Session), nil
}

// Current returns the session if one has been established, without
// establishing it.
func (m *SessionManager) Current() *Session {
	return m.current.Load()
}

// Close releases the wallet of an established session.
func (m *SessionManager) Close() {
	if s := m.current.Swap(nil); s != nil {
		s.Provider.Close()
	}
}

func (m *SessionManager) establish(ctx context.Context) (*Session, error) {
	w, err := m.connector.Connect(ctx)
	if err != nil {
		return nil, asProviderUnavailable("connect wallet", err)
	}

	accounts, err := w.RequestAccounts(ctx)
	if err != nil {
		w.Close()
		return nil, asProviderUnavailable("request accounts", err)
	}
	if len(accounts) == 0 {
		w.Close()
		return nil, apperror.ProviderUnavailable("request accounts", domain.ErrNoAccount)
	}

	signer := NewWalletSigner(w, accounts[0], m.cfg.Signer, m.logger)

	sale, token, err := m.binder.Bind(w, signer)
	if err != nil {
		w.Close()
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "bind contracts")
	}

	m.logger.Info(ctx, "wallet session established",
		"wallet", w.Name(),
		"account", accounts[0].Hex(),
		"sale", sale.Address().Hex(),
		"token", token.Address().Hex(),
	)

	return &Session{Provider: w, Signer: signer, Sale: sale, Token: token}, nil
}

func asProviderUnavailable(op string, err error) error {
	if apperror.HasCode(err, apperror.CodeProviderUnavailable) {
		return err
	}
	return apperror.ProviderUnavailable(op, err)
}
