package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/sale/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
)

func newQuoteEngine(e *env) *app.QuoteEngine {
	return app.NewQuoteEngine(e.sessions, e.guard, nopLogger)
}

func TestQuoteBuy_TenTokensAtTwoFinney(t *testing.T) {
	e := newEnv()

	q, err := newQuoteEngine(e).QuoteBuy(context.Background(), "10")
	require.NoError(t, err)

	assert.Equal(t, "0.02", q.Decimal)
	assert.Equal(t, "20000000000000000", q.BaseUnits.String())
	assert.Equal(t, 1, e.guard.count())
}

func TestQuoteSell_UsesSellPrice(t *testing.T) {
	e := newEnv()

	q, err := newQuoteEngine(e).QuoteSell(context.Background(), "10")
	require.NoError(t, err)

	assert.Equal(t, "0.01", q.Decimal)
	assert.Contains(t, e.log.all(), "read sellPrice")
	assert.NotContains(t, e.log.all(), "read buyPrice")
}

func TestQuote_EmptyInputIsZeroWithoutNetwork(t *testing.T) {
	e := newEnv()
	qe := newQuoteEngine(e)

	for _, in := range []string{"", "   "} {
		q, err := qe.QuoteBuy(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, q.IsZero())
		assert.Equal(t, "0", q.Decimal)
	}
	assert.Zero(t, e.networkCalls())
}

func TestQuote_RejectsBadInputBeforeNetwork(t *testing.T) {
	for _, in := range []string{"-1", "abc", "1e3", "1,5"} {
		t.Run(in, func(t *testing.T) {
			e := newEnv()

			_, err := newQuoteEngine(e).QuoteBuy(context.Background(), in)

			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), "got %v", err)
			assert.Zero(t, e.networkCalls())
		})
	}
}

func TestQuote_TooPreciseForToken(t *testing.T) {
	e := newEnv()
	e.token.decimals = 2

	_, err := newQuoteEngine(e).QuoteBuy(context.Background(), "1.001")

	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))
	assert.ErrorIs(t, err, asset.ErrTooManyDecimals)
}

func TestQuoteBuy_MatchesFloorFormulaAndIsMonotone(t *testing.T) {
	e := newEnv()
	e.sale.buyPrice = big.NewInt(333_333_333_333_333)
	qe := newQuoteEngine(e)

	inputs := []string{"0", "0.000000000000000001", "0.5", "1", "1.000000000000000001", "3", "7.25", "1000"}
	prev := big.NewInt(0)
	for _, in := range inputs {
		q, err := qe.QuoteBuy(context.Background(), in)
		require.NoError(t, err, in)

		raw, err := asset.ParseUnits(in, 18)
		require.NoError(t, err)
		want := domain.Cost(raw, e.sale.buyPrice, 18)

		assert.Equal(t, want.String(), q.BaseUnits.String(), in)
		assert.GreaterOrEqual(t, q.BaseUnits.Cmp(prev), 0, "quote decreased at %s", in)
		prev = q.BaseUnits
	}
}

func TestQuote_PropagatesGateFailures(t *testing.T) {
	e := newEnv()
	e.guard.err = apperror.NetworkMismatch("switch", errors.New("rejected"))

	_, err := newQuoteEngine(e).QuoteBuy(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeNetworkMismatch))
	assert.Zero(t, e.sessions.count())
}

func TestQuote_ReadFailureIsContractCallFailed(t *testing.T) {
	e := newEnv()
	e.sale.readErr = errors.New("execution reverted")

	_, err := newQuoteEngine(e).QuoteBuy(context.Background(), "1")

	assert.True(t, apperror.HasCode(err, apperror.CodeContractCallFailed))
}
