package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// SignerConfig controls receipt polling.
type SignerConfig struct {
	PollInterval time.Duration
}

// DefaultSignerConfig returns the default polling interval.
func DefaultSignerConfig() SignerConfig {
	return SignerConfig{PollInterval: 2 * time.Second}
}

// WalletSigner signs through the wallet for whichever account is active.
type WalletSigner struct {
	wallet  Wallet
	account atomic.Pointer[common.Address]
	cfg     SignerConfig
	logger  logger.LoggerInterface
}

var _ Signer = (*WalletSigner)(nil)

// NewWalletSigner creates a signer for account.
func NewWalletSigner(w Wallet, account common.Address, cfg SignerConfig, log logger.LoggerInterface) *WalletSigner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultSignerConfig().PollInterval
	}
	s := &WalletSigner{wallet: w, cfg: cfg, logger: log}
	s.account.Store(&account)
	return s
}

// Account returns the active account.
func (s *WalletSigner) Account() common.Address {
	return *s.account.Load()
}

// SetAccount swaps the active account.
func (s *WalletSigner) SetAccount(account common.Address) {
	s.account.Store(&account)
}

// Send submits tx from the active account. Any failure, a user rejection
// included, is TRANSACTION_FAILED.
func (s *WalletSigner) Send(ctx context.Context, tx domain.TxRequest) (common.Hash, error) {
	tx.From = s.Account()

	hash, err := s.wallet.SendTransaction(ctx, tx)
	if err != nil {
		where := fmt.Sprintf("send to %s", tx.To.Hex())
		if errors.Is(err, domain.ErrUserRejected) {
			where = fmt.Sprintf("send to %s rejected in wallet", tx.To.Hex())
		}
		return common.Hash{}, apperror.TransactionFailed(where, err)
	}

	s.logger.Info(ctx, "transaction submitted",
		"hash", hash.Hex(),
		"from", tx.From.Hex(),
		"to", tx.To.Hex(),
	)
	return hash, nil
}

// WaitConfirmed polls for the receipt of hash until it exists. It imposes no
// timeout of its own: a cancelled ctx yields TRANSACTION_PENDING, meaning the
// transaction may still land and must not be resubmitted blindly.
func (s *WalletSigner) WaitConfirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.wallet.Backend().TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, apperror.TransactionFailed(
					fmt.Sprintf("%s reverted in block %v", hash.Hex(), receipt.BlockNumber), nil)
			}
			s.logger.Info(ctx, "transaction confirmed",
				"hash", hash.Hex(),
				"block", receipt.BlockNumber,
				"gas_used", receipt.GasUsed,
			)
			return receipt, nil
		case err == nil, errors.Is(err, ethereum.NotFound):
			// not mined yet
		case ctx.Err() == nil:
			// The transaction is already out; a flaky read is not a failure.
			s.logger.Warn(ctx, "receipt lookup failed, still waiting", "hash", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeTransactionPending,
				apperror.WithContext(hash.Hex()),
				apperror.WithCause(ctx.Err()))
		case <-ticker.C:
		}
	}
}
