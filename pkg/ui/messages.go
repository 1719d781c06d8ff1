// Package ui provides the Bubble Tea TUI for the token sale client.
package ui

import (
	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
)

// Message types for TUI updates

// SnapshotMsg carries a passive refresh of the market figures.
type SnapshotMsg struct {
	Snapshot saleDomain.MarketSnapshot
}

// WalletEventMsg is sent when the wallet changes account or chain.
type WalletEventMsg struct {
	Event connectionDomain.WalletEvent
}

// QuoteMsg carries the preview for the current form input. Seq identifies
// the input it was computed for; stale previews are dropped.
type QuoteMsg struct {
	Seq     uint64
	Action  Action
	Quote   saleDomain.Quote
	Exceeds bool
	Err     error
}

// quoteDueMsg fires after the typing debounce.
type quoteDueMsg struct {
	Seq uint64
}

// TradeResultMsg is sent when a confirmed write operation finishes.
type TradeResultMsg struct {
	Action  Action
	Receipt *saleDomain.TradeReceipt
	Err     error
}

// SellProgressMsg reports a step of a running sell.
type SellProgressMsg struct {
	Transition saleDomain.SellTransition
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "success", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "wallet", "network", "market"
	Status  string // "connecting", "connected", "done", "failed"
	Message string // Optional message
}
