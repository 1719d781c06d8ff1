package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/sale/app"
	"github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

func newReader(e *env) *app.Reader {
	return app.NewReader(e.sessions, e.guard, nopLogger)
}

func TestReader_AvailableToBuy(t *testing.T) {
	e := newEnv()

	avail, err := newReader(e).AvailableToBuy(context.Background())
	require.NoError(t, err)

	// 50 held by the sale plus 1000 - 600 still mintable.
	assert.Equal(t, "450000000000000000000", avail.String())
	assert.Equal(t, 1, e.guard.count())
}

func TestReader_RereadsEveryCall(t *testing.T) {
	e := newEnv()
	r := newReader(e)

	first, err := r.AvailableToBuy(context.Background())
	require.NoError(t, err)

	e.token.totalSupply = wei("1000000000000000000000")
	second, err := r.AvailableToBuy(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.String(), second.String())
	assert.Equal(t, "50000000000000000000", second.String())
	assert.Equal(t, 2, e.guard.count())
}

func TestReader_SaleLiquidity(t *testing.T) {
	e := newEnv()

	q, err := newReader(e).SaleLiquidity(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "5", q.Decimal)
	assert.Equal(t, "5000000000000000000", q.BaseUnits.String())
}

func TestReader_Prices(t *testing.T) {
	e := newEnv()

	p, err := newReader(e).Prices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2000000000000000", p.Buy.BaseUnits.String())
	assert.Equal(t, "0.001", p.Sell.Decimal)
}

func TestReader_AccountBalances(t *testing.T) {
	e := newEnv()

	b, err := newReader(e).AccountBalances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, account, b.Account)
	assert.Equal(t, "3", b.ETH.Decimal)
	assert.Equal(t, "25", b.Token.Decimal)
}

func TestReader_ExceedsAvailable(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "", want: false},
		{in: "1", want: false},
		{in: "450", want: false},
		{in: "450.000000000000000001", want: true},
		{in: "10000", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := newReader(newEnv()).ExceedsAvailable(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_ExceedsAvailableAtTokenPrecision(t *testing.T) {
	e := newEnv()
	e.token.decimals = 2
	e.token.maxSupply = wei("1000")
	e.token.totalSupply = wei("1000")
	e.token.balances[saleAddr] = wei("150") // 1.50 tokens

	r := newReader(e)

	over, err := r.ExceedsAvailable(context.Background(), "1.5")
	require.NoError(t, err)
	assert.False(t, over)

	over, err = r.ExceedsAvailable(context.Background(), "1.51")
	require.NoError(t, err)
	assert.True(t, over)
}

func TestReader_ExceedsAvailableRejectsNegative(t *testing.T) {
	e := newEnv()

	_, err := newReader(e).ExceedsAvailable(context.Background(), "-1")

	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))
	assert.Zero(t, e.networkCalls())
}

func TestReader_ReadFailurePropagates(t *testing.T) {
	e := newEnv()
	e.token.supplyErr = errors.New("rpc down")

	_, err := newReader(e).SupplyInfo(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodeContractCallFailed))
}

func TestSnapshot_Complete(t *testing.T) {
	e := newEnv()

	snap := newReader(e).Snapshot(context.Background())

	require.NoError(t, snap.Err)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, account, snap.Account)
	assert.Equal(t, "0xaa36a7", snap.ChainID)
	assert.Equal(t, "3", domain.Display(snap.AccountETH))
	assert.Equal(t, "25", domain.Display(snap.AccountToken))
	assert.Equal(t, "5", domain.Display(snap.SaleLiquidity))
	require.NotNil(t, snap.Prices)
	assert.Equal(t, "0.002", snap.Prices.Buy.Decimal)
	require.NotNil(t, snap.Supply)
	assert.Equal(t, "450000000000000000000", snap.Supply.AvailableToBuy().String())
}

func TestSnapshot_AbsorbsFieldFailures(t *testing.T) {
	e := newEnv()
	e.token.supplyErr = errors.New("rpc down")

	snap := newReader(e).Snapshot(context.Background())

	require.NoError(t, snap.Err)
	assert.Nil(t, snap.Supply)
	assert.False(t, snap.Available(domain.FieldSupply))
	assert.Contains(t, snap.Errors, domain.FieldSupply)

	assert.NotNil(t, snap.Prices)
	assert.NotNil(t, snap.SaleLiquidity)
	assert.NotNil(t, snap.AccountToken)
}

func TestSnapshot_GateFailureLeavesEverythingUnavailable(t *testing.T) {
	e := newEnv()
	e.sessions.err = apperror.ProviderUnavailable("no wallet", nil)

	snap := newReader(e).Snapshot(context.Background())

	assert.True(t, apperror.HasCode(snap.Err, apperror.CodeProviderUnavailable))
	assert.Nil(t, snap.Prices)
	assert.Equal(t, domain.Unavailable, domain.Display(snap.SaleLiquidity))
}
