package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea TUI.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter. A nil send delivers to the running
// ui program.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

// Start marks the market step of the startup screen as in progress.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "market", Status: "connecting"})
	return nil
}

// Update sends a snapshot to the TUI.
func (r *TUIReporter) Update(snap saleDomain.MarketSnapshot) {
	status := "done"
	msg := ""
	if snap.Err != nil {
		status = "failed"
		msg = apperror.UserMessage(snap.Err)
	}
	r.send(ui.StartupMsg{Step: "market", Status: status, Message: msg})
	r.send(ui.SnapshotMsg{Snapshot: snap})
}

// Event sends a wallet notification to the TUI.
func (r *TUIReporter) Event(ev connectionDomain.WalletEvent) {
	r.send(ui.WalletEventMsg{Event: ev})
}

// Stop is a no-op; the program owns its own lifecycle.
func (r *TUIReporter) Stop() error {
	return nil
}
