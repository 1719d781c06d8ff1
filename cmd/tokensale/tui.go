package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	connectionDI "github.com/fd1az/tokensale-client/business/connection/di"
	marketDI "github.com/fd1az/tokensale-client/business/market/di"
	saleDI "github.com/fd1az/tokensale-client/business/sale/di"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/monolith"
	"github.com/fd1az/tokensale-client/pkg/ui"
)

type tuiMonolith interface {
	monolith.Monolith
	StartModules(ctx context.Context, modules ...monolith.Module) error
}

func runTUI(ctx context.Context, mono tuiMonolith, modules []monolith.Module) error {
	sr := mono.Services()

	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	mon := marketDI.GetMonitor(sr)
	svc := ui.Services{
		Quotes:  saleDI.GetQuoteEngine(sr),
		Supply:  saleDI.GetReader(sr),
		Trades:  saleDI.GetOrchestrator(sr),
		Refresh: mon.Refresh,
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(svc, connectionDI.GetTarget(sr).Name()), tea.WithAltScreen())
	ui.Program = p

	// Run client logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		if err := mono.StartModules(ctx, modules...); err != nil {
			err = fmt.Errorf("failed to start modules: %w", err)
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		stopHealth := startHealth(ctx, sr)
		defer stopHealth()

		connectWallet(ctx, mono)

		// The monitor reports the market step itself.
		if err := mon.Start(ctx); err != nil {
			ui.Send(ui.StartupMsg{Step: "market", Status: "failed", Message: err.Error()})
			ui.Send(ui.ErrorMsg{Error: err})
		}

		<-ctx.Done()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Check for client errors
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// connectWallet establishes the session and checks the network, reporting
// both steps. Failures do not stop the dashboard: every later operation
// retries the connection.
func connectWallet(ctx context.Context, mono monolith.Monolith) {
	sr := mono.Services()

	ui.Send(ui.StartupMsg{Step: "wallet", Status: "connecting"})
	sess, err := connectionDI.GetSessions(sr).Session(ctx)
	if err != nil {
		mono.Logger().Warn(ctx, "wallet not connected", "error", err)
		ui.Send(ui.StartupMsg{Step: "wallet", Status: "failed", Message: apperror.UserMessage(err)})
		ui.Send(ui.StartupMsg{Step: "network", Status: "failed", Message: "no wallet"})
		return
	}
	ui.Send(ui.StartupMsg{Step: "wallet", Status: "connected", Message: sess.Signer.Account().Hex()})

	ui.Send(ui.StartupMsg{Step: "network", Status: "connecting"})
	if err := connectionDI.GetGuard(sr).EnsureCorrectNetwork(ctx); err != nil {
		mono.Logger().Warn(ctx, "network check failed", "error", err)
		ui.Send(ui.StartupMsg{Step: "network", Status: "failed", Message: apperror.UserMessage(err)})
		return
	}
	ui.Send(ui.StartupMsg{Step: "network", Status: "connected"})
}
