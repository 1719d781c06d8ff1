package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/business/connection"
	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/business/market"
	marketDI "github.com/fd1az/tokensale-client/business/market/di"
	"github.com/fd1az/tokensale-client/business/sale"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/config"
	"github.com/fd1az/tokensale-client/internal/logger"
	"github.com/fd1az/tokensale-client/internal/monolith"
)

type recordingReporter struct {
	updates chan saleDomain.MarketSnapshot
	stopped chan struct{}
}

func (r *recordingReporter) Start(context.Context) error           { return nil }
func (r *recordingReporter) Update(snap saleDomain.MarketSnapshot) { r.updates <- snap }
func (r *recordingReporter) Event(connectionDomain.WalletEvent)    {}
func (r *recordingReporter) Stop() error                           { close(r.stopped); return nil }

func TestModule_MonitorReportsMissingWallet(t *testing.T) {
	cfg := &config.Config{
		Network: config.NetworkConfig{
			ChainID:        11155111,
			ChainName:      "Sepolia Test Network",
			NativeCurrency: config.CurrencyConfig{Name: "Sepolia ETH", Symbol: "ETH", Decimals: 18},
			RPCURLs:        []string{"https://rpc.sepolia.org"},
		},
		Contracts: config.ContractsConfig{
			Token: "0x829b714f4492c668023f04fffe24cc491a4d7d57",
			Sale:  "0x4dfe6171d0edca008eb1e79476b5ebebc1bb8c32",
		},
		RPC:     config.RPCConfig{RequestsPerSecond: 10, Burst: 10},
		Monitor: config.MonitorConfig{RefreshInterval: time.Hour},
	}

	reporter := &recordingReporter{
		updates: make(chan saleDomain.MarketSnapshot, 4),
		stopped: make(chan struct{}),
	}

	mono := monolith.New(cfg, logger.NewDiscard())
	mono.Container().Register(marketDI.ReporterKey, reporter)

	modules := []monolith.Module{&connection.Module{}, &sale.Module{}, &market.Module{}}
	require.NoError(t, mono.RegisterModules(modules...))
	require.NoError(t, mono.StartModules(context.Background(), modules...))

	require.NoError(t, marketDI.GetMonitor(mono.Services()).Start(context.Background()))

	select {
	case snap := <-reporter.updates:
		assert.True(t, apperror.HasCode(snap.Err, apperror.CodeProviderUnavailable), "got %v", snap.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot reported")
	}

	require.NoError(t, mono.Close())
	select {
	case <-reporter.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("reporter not stopped on close")
	}
}
