package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	connectionApp "github.com/fd1az/tokensale-client/business/connection/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

// Sell sells tokenAmount tokens back to the sale contract.
//
// The steps run strictly in order and any failure aborts the rest:
// validate, check the contract can pay the refund, check the allowance,
// approve exactly the amount if the allowance is short and wait for that
// approval to be mined, then sell and wait. Observers see every state
// change.
func (o *Orchestrator) Sell(ctx context.Context, tokenAmount string, observers ...domain.SellObserver) (*domain.TradeReceipt, error) {
	op := o.begin(ctx, domain.TradeSell)
	defer op.end()

	saga := domain.NewSellSaga(append([]domain.SellObserver{o.traceSell(op)}, observers...)...)
	r, err := o.runSell(op, saga, tokenAmount)
	if err != nil {
		return nil, op.fail(saga.Fail(err))
	}
	op.ok(r)
	return r, nil
}

func (o *Orchestrator) runSell(op *operation, saga *domain.SellSaga, tokenAmount string) (*domain.TradeReceipt, error) {
	ctx := op.ctx

	// Validating
	if err := saga.Advance(domain.SellValidating); err != nil {
		return nil, err
	}
	if err := validatePositive(tokenAmount); err != nil {
		return nil, err
	}
	sess, err := gate(ctx, o.guard, o.sessions)
	if err != nil {
		return nil, err
	}
	decimals, price, err := readDecimalsAndPrice(ctx, sess, func(ctx context.Context, s connectionApp.SaleContract) (*big.Int, error) {
		return s.SellPrice(ctx)
	})
	if err != nil {
		return nil, err
	}
	amount, err := parsePositive(tokenAmount, decimals)
	if err != nil {
		return nil, err
	}
	refund := domain.Cost(amount, price, decimals)

	// CheckingLiquidity
	if err := saga.Advance(domain.SellCheckingLiquidity); err != nil {
		return nil, err
	}
	if err := checkLiquidity(ctx, sess.Sale, refund); err != nil {
		return nil, err
	}

	// CheckingAllowance
	if err := saga.Advance(domain.SellCheckingAllowance); err != nil {
		return nil, err
	}
	owner := sess.Signer.Account()
	spender := sess.Sale.Address()
	allowance, err := sess.Token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, readFailed(err, "token.allowance")
	}

	// Approving, only when short. The sell must not be submitted until the
	// approval is mined or it would race the allowance.
	var approval *common.Hash
	if allowance.Cmp(amount) < 0 {
		if err := saga.Advance(domain.SellApproving); err != nil {
			return nil, err
		}
		o.logger.Info(ctx, "approving sale contract",
			"intent_id", op.id,
			"allowance", allowance.String(),
			"needed", amount.String(),
		)
		hash, err := sess.Token.Approve(ctx, spender, amount)
		if err != nil {
			return nil, err
		}
		if _, err := o.confirm(ctx, sess, hash); err != nil {
			return nil, err
		}
		approval = &hash
	}

	// Selling
	if err := saga.Advance(domain.SellSelling); err != nil {
		return nil, err
	}
	sellHash, err := sess.Sale.SellTokens(ctx, amount)
	if err != nil {
		return nil, err
	}
	receipt, err := o.confirm(ctx, sess, sellHash)
	if err != nil {
		return nil, err
	}

	// Confirmed
	if err := saga.Advance(domain.SellConfirmed); err != nil {
		return nil, err
	}

	r := o.receipt(op, sess, receipt, domain.NativeQuote(refund))
	tokens := domain.NewQuote(amount, decimals)
	r.Tokens = &tokens
	r.ApprovalTxHash = approval
	return r, nil
}

// checkLiquidity refuses a sell the contract cannot pay for, so a doomed
// transaction is never submitted.
func checkLiquidity(ctx context.Context, sale connectionApp.SaleContract, refund *big.Int) error {
	balance, err := sale.Balance(ctx)
	if err != nil {
		return readFailed(err, "sale.balance")
	}
	if refund.Cmp(balance) > 0 {
		return apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext(fmt.Sprintf("refund %s wei, contract holds %s wei", refund, balance)))
	}
	return nil
}

func (o *Orchestrator) traceSell(op *operation) domain.SellObserver {
	return func(t domain.SellTransition) {
		op.span.AddEvent("sell." + t.To.String())
		o.logger.Debug(op.ctx, "sell state", "intent_id", op.id, "from", t.From, "to", t.To)
	}
}
