package infra_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/business/market/infra"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/pkg/ui"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestConsoleReporter_PrintsFiguresAndDashes(t *testing.T) {
	var out bytes.Buffer
	r := infra.NewConsoleReporter(&out)

	eth := saleDomain.NativeQuote(big.NewInt(3e18))
	r.Update(saleDomain.MarketSnapshot{
		TakenAt:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		ChainID:    "0xaa36a7",
		AccountETH: &eth,
		Prices: &saleDomain.PricePair{
			Buy:  saleDomain.NativeQuote(big.NewInt(2e15)),
			Sell: saleDomain.NativeQuote(big.NewInt(1e15)),
		},
		Supply: &saleDomain.SupplyInfo{
			MaxSupply:   e18(1000),
			TotalSupply: e18(600),
			SaleReserve: e18(50),
			Decimals:    18,
		},
		Errors: map[string]error{
			saleDomain.FieldAccountToken: errors.New("boom"),
			saleDomain.FieldLiquidity:    errors.New("boom"),
		},
	})

	text := out.String()
	assert.Contains(t, text, "[15:04:05] chain 0xaa36a7")
	assert.Contains(t, text, "Your ETH:         3")
	assert.Contains(t, text, "Your tokens:      -")
	assert.Contains(t, text, "Buy price:        0.002 ETH (2000000000000000 wei)")
	assert.Contains(t, text, "Available to buy: 450")
	assert.Contains(t, text, "Sale ETH:         -")
}

func TestConsoleReporter_SnapshotErrorIsOneLine(t *testing.T) {
	var out bytes.Buffer
	r := infra.NewConsoleReporter(&out)

	r.Update(saleDomain.MarketSnapshot{Err: apperror.ProviderUnavailable("snapshot", nil)})
	assert.Contains(t, out.String(), "unavailable: ")
	assert.NotContains(t, out.String(), "Buy price")
}

func TestConsoleReporter_Events(t *testing.T) {
	var out bytes.Buffer
	r := infra.NewConsoleReporter(&out)

	r.Event(connectionDomain.WalletEvent{Kind: connectionDomain.EventChainChanged, ChainID: "0x1"})
	r.Event(connectionDomain.WalletEvent{Kind: connectionDomain.EventAccountChanged})

	assert.Contains(t, out.String(), "chain changed: 0x1")
	assert.Contains(t, out.String(), "account changed: (none)")
}

func TestTUIReporter_SendsMessages(t *testing.T) {
	var sent []tea.Msg
	r := infra.NewTUIReporter(func(msg tea.Msg) { sent = append(sent, msg) })

	require.NoError(t, r.Start(context.Background()))
	r.Update(saleDomain.MarketSnapshot{ChainID: "0xaa36a7"})
	r.Event(connectionDomain.WalletEvent{Kind: connectionDomain.EventChainChanged, ChainID: "0x1"})

	require.Len(t, sent, 4)
	assert.Equal(t, ui.StartupMsg{Step: "market", Status: "connecting"}, sent[0])
	assert.Equal(t, ui.StartupMsg{Step: "market", Status: "done"}, sent[1])
	assert.IsType(t, ui.SnapshotMsg{}, sent[2])
	assert.IsType(t, ui.WalletEventMsg{}, sent[3])
}

func TestTUIReporter_FailedSnapshotMarksStepFailed(t *testing.T) {
	var sent []tea.Msg
	r := infra.NewTUIReporter(func(msg tea.Msg) { sent = append(sent, msg) })

	r.Update(saleDomain.MarketSnapshot{Err: errors.New("wrong network")})

	require.Len(t, sent, 2)
	step, ok := sent[0].(ui.StartupMsg)
	require.True(t, ok)
	assert.Equal(t, "failed", step.Status)
	assert.Equal(t, "wrong network", step.Message)
}
