package ui

import (
	"context"
	"errors"
	"math/big"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
)

type fakeQuotes struct {
	buy, sell saleDomain.Quote
	err       error
}

func (f *fakeQuotes) QuoteBuy(context.Context, string) (saleDomain.Quote, error) {
	return f.buy, f.err
}

func (f *fakeQuotes) QuoteSell(context.Context, string) (saleDomain.Quote, error) {
	return f.sell, f.err
}

type fakeSupply struct{ exceeds bool }

func (f *fakeSupply) ExceedsAvailable(context.Context, string) (bool, error) {
	return f.exceeds, nil
}

type fakeTrades struct {
	calls []string
	err   error
}

func (f *fakeTrades) receipt(kind saleDomain.TradeKind) (*saleDomain.TradeReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &saleDomain.TradeReceipt{Kind: kind, Value: saleDomain.NativeQuote(big.NewInt(1e18))}, nil
}

func (f *fakeTrades) BuyBySpend(_ context.Context, eth string) (*saleDomain.TradeReceipt, error) {
	f.calls = append(f.calls, "buy_eth "+eth)
	return f.receipt(saleDomain.TradeBuyBySpend)
}

func (f *fakeTrades) BuyExact(_ context.Context, tokens string) (*saleDomain.TradeReceipt, error) {
	f.calls = append(f.calls, "buy "+tokens)
	return f.receipt(saleDomain.TradeBuyExact)
}

func (f *fakeTrades) Sell(_ context.Context, tokens string, _ ...saleDomain.SellObserver) (*saleDomain.TradeReceipt, error) {
	f.calls = append(f.calls, "sell "+tokens)
	return f.receipt(saleDomain.TradeSell)
}

func (f *fakeTrades) Withdraw(_ context.Context, eth string) (*saleDomain.TradeReceipt, error) {
	f.calls = append(f.calls, "withdraw "+eth)
	return f.receipt(saleDomain.TradeWithdraw)
}

func (f *fakeTrades) WithdrawAll(context.Context) (*saleDomain.TradeReceipt, error) {
	f.calls = append(f.calls, "withdraw all")
	return f.receipt(saleDomain.TradeWithdraw)
}

type harness struct {
	refreshes int
	quotes    *fakeQuotes
	supply    *fakeSupply
	trades    *fakeTrades
	model     Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		quotes: &fakeQuotes{
			buy:  saleDomain.NativeQuote(big.NewInt(2e16)),
			sell: saleDomain.NativeQuote(big.NewInt(1e16)),
		},
		supply: &fakeSupply{},
		trades: &fakeTrades{},
	}
	h.model = New(Services{
		Quotes:  h.quotes,
		Supply:  h.supply,
		Trades:  h.trades,
		Refresh: func() { h.refreshes++ },
	}, "Sepolia Test Network")

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.Equal(t, PhaseStartup, h.model.phase)
	for _, step := range stepOrder {
		h.send(StartupMsg{Step: step, Status: "done"})
	}
	require.Equal(t, PhaseDashboard, h.model.phase)
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) selectAction(a Action) {
	for h.model.form.action != a {
		h.send(tea.KeyMsg{Type: tea.KeyTab})
	}
}

// quote runs the debounced preview for the current input.
func (h *harness) quote(t *testing.T) {
	t.Helper()
	cmd := h.send(quoteDueMsg{Seq: h.model.form.seq})
	require.NotNil(t, cmd)
	h.send(cmd())
}

func TestModel_StartupWaitsForEveryStep(t *testing.T) {
	m := New(Services{}, "Sepolia")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)

	next, _ = m.Update(StartupMsg{Step: "config", Status: "done"})
	m = next.(Model)
	next, _ = m.Update(StartupMsg{Step: "wallet", Status: "connecting"})
	m = next.(Model)
	assert.Equal(t, PhaseStartup, m.phase)

	for _, step := range []string{"wallet", "network"} {
		next, _ = m.Update(StartupMsg{Step: step, Status: "connected"})
		m = next.(Model)
	}
	next, _ = m.Update(StartupMsg{Step: "market", Status: "failed", Message: "rpc down"})
	m = next.(Model)
	assert.Equal(t, PhaseDashboard, m.phase)
}

func TestModel_InputAcceptsOnlyDecimalCharacters(t *testing.T) {
	h := newHarness(t)
	h.typeText("1a.5-")
	assert.Equal(t, "1.5", h.model.form.Value())
}

func TestModel_BuyPreviewShowsCost(t *testing.T) {
	h := newHarness(t)
	h.selectAction(ActionBuyExact)
	h.typeText("10")
	h.quote(t)

	assert.Equal(t, "0.02", h.model.form.preview)
	assert.False(t, h.model.form.exceeds)

	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, h.model.form.Confirming())
}

func TestModel_StalePreviewIsDropped(t *testing.T) {
	h := newHarness(t)
	h.selectAction(ActionSell)
	h.typeText("1")
	stale := h.model.form.seq
	h.typeText("0")

	h.send(QuoteMsg{Seq: stale, Action: ActionSell, Quote: saleDomain.NativeQuote(big.NewInt(1))})
	assert.Empty(t, h.model.form.preview)

	h.quote(t)
	assert.Equal(t, "0.01", h.model.form.preview)
}

func TestModel_ExceedingAvailabilityBlocksSubmit(t *testing.T) {
	h := newHarness(t)
	h.supply.exceeds = true
	h.selectAction(ActionBuyExact)
	h.typeText("5000")
	h.quote(t)

	require.True(t, h.model.form.exceeds)
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, h.model.form.Confirming())
	require.NotEmpty(t, h.model.errors)
	assert.Contains(t, h.model.errors[len(h.model.errors)-1].Message, "exceeds")
}

func TestModel_QuoteErrorBlocksSubmit(t *testing.T) {
	h := newHarness(t)
	h.quotes.err = apperror.InvalidAmount("1.2.3", nil)
	h.selectAction(ActionSell)
	h.typeText("1..")
	h.quote(t)

	assert.NotEmpty(t, h.model.form.previewErr)
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, h.model.form.Confirming())
}

func TestModel_ConfirmRunsTrade(t *testing.T) {
	h := newHarness(t)
	h.typeText("0.5")
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, h.model.form.Confirming())

	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	assert.True(t, h.model.form.Busy())

	// Keys are ignored while the wallet is busy.
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, h.model.quitting)

	h.send(cmd())
	assert.False(t, h.model.form.Busy())
	assert.Equal(t, []string{"buy_eth 0.5"}, h.trades.calls)
	assert.Empty(t, h.model.form.Value())
	assert.Equal(t, 1, h.model.activity.Len())
	assert.Equal(t, 1, h.refreshes)
}

func TestModel_CancelLeavesInput(t *testing.T) {
	h := newHarness(t)
	h.typeText("2")
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	assert.False(t, h.model.form.Confirming())
	assert.Equal(t, "2", h.model.form.Value())
	assert.Empty(t, h.trades.calls)
}

func TestModel_EmptyWithdrawWithdrawsAll(t *testing.T) {
	h := newHarness(t)
	h.selectAction(ActionWithdraw)
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.Equal(t, []string{"withdraw all"}, h.trades.calls)
}

func TestModel_FailedTradeKeepsInputAndReportsError(t *testing.T) {
	h := newHarness(t)
	h.trades.err = apperror.TransactionFailed("buy", errors.New("user rejected"))
	h.typeText("1")
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	h.send(cmd())

	assert.Equal(t, "1", h.model.form.Value())
	require.Len(t, h.model.errors, 1)
	assert.Contains(t, h.model.errors[0].Message, ActionBuyETH.String())
	assert.Zero(t, h.refreshes)
}

func TestModel_SnapshotFailureShowsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.send(SnapshotMsg{Snapshot: saleDomain.MarketSnapshot{Err: errors.New("wrong network")}})

	info := h.model.account.Info()
	assert.False(t, info.NetworkOK)
	assert.Equal(t, saleDomain.Unavailable, info.ETH)
	assert.Equal(t, saleDomain.Unavailable, info.Token)
}

func TestModel_SnapshotFillsPanels(t *testing.T) {
	h := newHarness(t)
	eth := saleDomain.NativeQuote(big.NewInt(3e18))
	h.send(SnapshotMsg{Snapshot: saleDomain.MarketSnapshot{
		ChainID:    "0xaa36a7",
		AccountETH: &eth,
		Prices: &saleDomain.PricePair{
			Buy:  saleDomain.NativeQuote(big.NewInt(2e15)),
			Sell: saleDomain.NativeQuote(big.NewInt(1e15)),
		},
		Errors: map[string]error{saleDomain.FieldAccountToken: errors.New("boom")},
	}})

	info := h.model.account.Info()
	assert.True(t, info.NetworkOK)
	assert.Equal(t, "3", info.ETH)
	assert.Equal(t, saleDomain.Unavailable, info.Token)
	assert.Contains(t, h.model.prices.View(), "0.002")
}
