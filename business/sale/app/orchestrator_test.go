package app_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/sale/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

func newOrchestrator(t *testing.T, e *env) *app.Orchestrator {
	t.Helper()
	o, err := app.NewOrchestrator(e.sessions, e.guard, sepolia(), nopLogger)
	require.NoError(t, err)
	return o
}

func TestBuyBySpend_SendsValueToSale(t *testing.T) {
	e := newEnv()

	r, err := newOrchestrator(t, e).BuyBySpend(context.Background(), "0.5")
	require.NoError(t, err)

	require.Len(t, e.sale.deposits, 1)
	assert.Equal(t, "500000000000000000", e.sale.deposits[0].String())
	assert.Equal(t, []string{"guard", "submit deposit", "confirmed deposit"}, e.log.all())

	assert.Equal(t, domain.TradeBuyBySpend, r.Kind)
	assert.Equal(t, "0.5", r.Value.Decimal)
	assert.Nil(t, r.Tokens)
	assert.Equal(t, account, r.Account)
	assert.Equal(t, uint64(100), r.BlockNumber)
	assert.NotEqual(t, uuid.Nil, r.IntentID)
	assert.True(t, strings.HasPrefix(r.ExplorerURL, "https://sepolia.etherscan.io/tx/0x"))
}

func TestBuyExact_PaysQuotedCost(t *testing.T) {
	e := newEnv()

	r, err := newOrchestrator(t, e).BuyExact(context.Background(), "10")
	require.NoError(t, err)

	require.Len(t, e.sale.buys, 1)
	assert.Equal(t, "10000000000000000000", e.sale.buys[0][0].String())
	assert.Equal(t, "20000000000000000", e.sale.buys[0][1].String())

	assert.Equal(t, domain.TradeBuyExact, r.Kind)
	assert.Equal(t, "0.02", r.Value.Decimal)
	require.NotNil(t, r.Tokens)
	assert.Equal(t, "10", r.Tokens.Decimal)
}

func TestBuyExact_UsesTokenPrecision(t *testing.T) {
	e := newEnv()
	e.token.decimals = 6
	e.sale.buyPrice = big.NewInt(4e15)

	_, err := newOrchestrator(t, e).BuyExact(context.Background(), "2.5")
	require.NoError(t, err)

	require.Len(t, e.sale.buys, 1)
	assert.Equal(t, "2500000", e.sale.buys[0][0].String())
	assert.Equal(t, "10000000000000000", e.sale.buys[0][1].String())
}

func TestWrites_RejectInvalidAmountBeforeNetwork(t *testing.T) {
	ops := map[string]func(o *app.Orchestrator, in string) error{
		"buy_eth": func(o *app.Orchestrator, in string) error {
			_, err := o.BuyBySpend(context.Background(), in)
			return err
		},
		"buy": func(o *app.Orchestrator, in string) error {
			_, err := o.BuyExact(context.Background(), in)
			return err
		},
		"sell": func(o *app.Orchestrator, in string) error {
			_, err := o.Sell(context.Background(), in)
			return err
		},
		"withdraw": func(o *app.Orchestrator, in string) error {
			_, err := o.Withdraw(context.Background(), in)
			return err
		},
	}

	for name, run := range ops {
		for _, in := range []string{"0", "-1", "", "abc", "0.000"} {
			t.Run(name+"/"+in, func(t *testing.T) {
				e := newEnv()

				err := run(newOrchestrator(t, e), in)

				assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), "got %v", err)
				assert.Zero(t, e.networkCalls())
				assert.Empty(t, e.log.all())
			})
		}
	}
}

func TestBuyBySpend_TooPreciseForEther(t *testing.T) {
	e := newEnv()

	_, err := newOrchestrator(t, e).BuyBySpend(context.Background(), "0.0000000000000000001")

	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))
	assert.Zero(t, e.networkCalls())
}

func TestWrites_WalletRejectionIsTransactionFailed(t *testing.T) {
	e := newEnv()
	e.signer.sendErr = errors.New("user rejected")

	_, err := newOrchestrator(t, e).BuyExact(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeTransactionFailed))
	assert.NotContains(t, e.log.all(), "confirmed buyTokens")
}

func TestWrites_ConfirmationFailurePropagates(t *testing.T) {
	e := newEnv()
	e.signer.failWait["deposit"] = apperror.TransactionFailed("reverted", nil)

	_, err := newOrchestrator(t, e).BuyBySpend(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeTransactionFailed))
}

func TestWrites_AbandonedWaitIsPending(t *testing.T) {
	e := newEnv()
	e.signer.failWait["buyTokens"] = apperror.New(apperror.CodeTransactionPending)

	_, err := newOrchestrator(t, e).BuyExact(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeTransactionPending))
	assert.Len(t, e.sale.buys, 1)
}

func TestWrites_NetworkMismatchSubmitsNothing(t *testing.T) {
	e := newEnv()
	e.guard.err = apperror.NetworkMismatch("switch", errors.New("rejected"))

	_, err := newOrchestrator(t, e).BuyBySpend(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeNetworkMismatch))
	assert.Empty(t, e.sale.deposits)
}

func TestWithdraw(t *testing.T) {
	e := newEnv()

	r, err := newOrchestrator(t, e).Withdraw(context.Background(), "1.5")
	require.NoError(t, err)

	require.Len(t, e.sale.withdraws, 1)
	assert.Equal(t, "1500000000000000000", e.sale.withdraws[0].String())
	assert.Equal(t, domain.TradeWithdraw, r.Kind)
}

func TestWithdrawAll_WithdrawsWholeBalance(t *testing.T) {
	e := newEnv()

	r, err := newOrchestrator(t, e).WithdrawAll(context.Background())
	require.NoError(t, err)

	require.Len(t, e.sale.withdraws, 1)
	assert.Equal(t, e.sale.balance.String(), e.sale.withdraws[0].String())
	assert.Equal(t, "5", r.Value.Decimal)
}

func TestWithdrawAll_EmptyContract(t *testing.T) {
	e := newEnv()
	e.sale.balance = big.NewInt(0)

	_, err := newOrchestrator(t, e).WithdrawAll(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodeNothingToWithdraw))
	assert.Empty(t, e.sale.withdraws)
}
