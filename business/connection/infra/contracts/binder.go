package contracts

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

var _ app.ContractBinder = (*Binder)(nil)

// Binder creates contract handles for a session.
type Binder struct {
	sale    common.Address
	token   common.Address
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// NewBinder creates a Binder for the two deployed contracts. Every session
// bound by it shares limiter.
func NewBinder(sale, token common.Address, limiter *ratelimit.Limiter, log logger.LoggerInterface) *Binder {
	return &Binder{sale: sale, token: token, limiter: limiter, logger: log}
}

// Bind implements app.ContractBinder.
func (b *Binder) Bind(w app.Wallet, s app.Signer) (app.SaleContract, app.TokenContract, error) {
	c, err := newCaller(w.Backend(), s, b.limiter, b.logger)
	if err != nil {
		return nil, nil, err
	}

	sale, err := newSale(b.sale, c)
	if err != nil {
		return nil, nil, err
	}
	token, err := newToken(b.token, c)
	if err != nil {
		return nil, nil, err
	}
	return sale, token, nil
}
