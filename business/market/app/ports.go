// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
)

const (
	tracerName = "market"
	meterName  = "market"
)

// Reporter defines the interface for displaying market refreshes.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Update shows a fresh snapshot.
	Update(snap saleDomain.MarketSnapshot)

	// Event shows a wallet notification.
	Event(ev connectionDomain.WalletEvent)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Snapshotter takes one passive reading of the sale.
type Snapshotter interface {
	Snapshot(ctx context.Context) saleDomain.MarketSnapshot
}

// EventSource publishes wallet notifications. Start may fail while no
// wallet is reachable and is retried on every refresh.
type EventSource interface {
	Subscribe(ch chan<- connectionDomain.WalletEvent) event.Subscription
	Start(ctx context.Context) error
}
