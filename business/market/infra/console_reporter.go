// Package infra contains infrastructure adapters for the market context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to out, or to
// stdout when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Token Sale Monitor Started")
	fmt.Fprintln(r.out, "==========================")
	return nil
}

// Update prints one snapshot.
func (r *ConsoleReporter) Update(snap saleDomain.MarketSnapshot) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "[%s] ", snap.TakenAt.Format("15:04:05"))
	if snap.Err != nil {
		fmt.Fprintf(r.out, "unavailable: %s\n", apperror.UserMessage(snap.Err))
		return
	}
	fmt.Fprintf(r.out, "chain %s  account %s\n", snap.ChainID, accountText(snap.Account))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")

	fmt.Fprintf(r.out, "  Your ETH:         %s\n", saleDomain.Display(snap.AccountETH))
	fmt.Fprintf(r.out, "  Your tokens:      %s\n", saleDomain.Display(snap.AccountToken))

	if snap.Prices != nil {
		fmt.Fprintf(r.out, "  Buy price:        %s ETH (%s wei)\n", snap.Prices.Buy.Decimal, snap.Prices.Buy.BaseUnits)
		fmt.Fprintf(r.out, "  Sell price:       %s ETH (%s wei)\n", snap.Prices.Sell.Decimal, snap.Prices.Sell.BaseUnits)
	} else {
		fmt.Fprintf(r.out, "  Prices:           %s\n", saleDomain.Unavailable)
	}

	if s := snap.Supply; s != nil {
		fmt.Fprintf(r.out, "  Max supply:       %s\n", asset.FormatUnits(s.MaxSupply, s.Decimals))
		fmt.Fprintf(r.out, "  Total supply:     %s\n", asset.FormatUnits(s.TotalSupply, s.Decimals))
		fmt.Fprintf(r.out, "  Sale reserve:     %s\n", asset.FormatUnits(s.SaleReserve, s.Decimals))
		fmt.Fprintf(r.out, "  Available to buy: %s\n", asset.FormatUnits(s.AvailableToBuy(), s.Decimals))
	} else {
		fmt.Fprintf(r.out, "  Supply:           %s\n", saleDomain.Unavailable)
	}

	fmt.Fprintf(r.out, "  Sale ETH:         %s\n", saleDomain.Display(snap.SaleLiquidity))
}

// Event prints a wallet notification.
func (r *ConsoleReporter) Event(ev connectionDomain.WalletEvent) {
	ts := time.Now().Format("15:04:05")
	switch ev.Kind {
	case connectionDomain.EventAccountChanged:
		fmt.Fprintf(r.out, "[%s] account changed: %s\n", ts, accountText(ev.Account))
	case connectionDomain.EventChainChanged:
		fmt.Fprintf(r.out, "[%s] chain changed: %s\n", ts, ev.ChainID)
	case connectionDomain.EventNetworkChecked:
		if ev.Err != nil {
			fmt.Fprintf(r.out, "[%s] network check failed: %s\n", ts, apperror.UserMessage(ev.Err))
		} else {
			fmt.Fprintf(r.out, "[%s] network ok\n", ts)
		}
	}
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Token Sale Monitor Stopped")
	return nil
}

func accountText(a common.Address) string {
	if a == (common.Address{}) {
		return "(none)"
	}
	return a.Hex()
}
