package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	marketDI "github.com/fd1az/tokensale-client/business/market/di"
	"github.com/fd1az/tokensale-client/business/market/infra"
	saleDI "github.com/fd1az/tokensale-client/business/sale/di"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/di"
	"github.com/fd1az/tokensale-client/internal/monolith"
)

// usageError marks a malformed command line.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

type command struct {
	args int // exact number of arguments, -1 for zero or one
	run  func(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error
}

var commands = map[string]command{
	"info":       {args: 0, run: cmdInfo},
	"quote-buy":  {args: 1, run: cmdQuoteBuy},
	"quote-sell": {args: 1, run: cmdQuoteSell},
	"buy-eth":    {args: 1, run: cmdBuyETH},
	"buy":        {args: 1, run: cmdBuy},
	"sell":       {args: 1, run: cmdSell},
	"withdraw":   {args: -1, run: cmdWithdraw},
	"watch":      {args: 0, run: cmdWatch},
}

func runCommand(ctx context.Context, mono monolith.Monolith, args []string, out io.Writer) error {
	if len(args) == 0 {
		// -cli without a command: follow the market like the dashboard would.
		args = []string{"watch"}
	}

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		return usageError{msg: fmt.Sprintf("unknown command %q", name)}
	}
	switch {
	case cmd.args >= 0 && len(rest) != cmd.args:
		return usageError{msg: fmt.Sprintf("%s takes %d argument(s), got %d", name, cmd.args, len(rest))}
	case cmd.args < 0 && len(rest) > 1:
		return usageError{msg: fmt.Sprintf("%s takes at most one argument", name)}
	}
	return cmd.run(ctx, mono.Services(), rest, out)
}

func cmdInfo(ctx context.Context, sr di.ServiceRegistry, _ []string, out io.Writer) error {
	snap := saleDI.GetReader(sr).Snapshot(ctx)
	if snap.Err != nil {
		return snap.Err
	}
	infra.NewConsoleReporter(out).Update(snap)
	return nil
}

func cmdQuoteBuy(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	q, err := saleDI.GetQuoteEngine(sr).QuoteBuy(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Buying %s tokens costs %s ETH (%s wei)\n", args[0], q.Decimal, q.BaseUnits)

	exceeds, err := saleDI.GetReader(sr).ExceedsAvailable(ctx, args[0])
	if err != nil {
		return err
	}
	if exceeds {
		fmt.Fprintln(out, "Warning: the amount exceeds the tokens currently available to buy")
	}
	return nil
}

func cmdQuoteSell(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	q, err := saleDI.GetQuoteEngine(sr).QuoteSell(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Selling %s tokens refunds %s ETH (%s wei)\n", args[0], q.Decimal, q.BaseUnits)
	return nil
}

func cmdBuyETH(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	fmt.Fprintln(out, "Confirm the transaction in your wallet...")
	r, err := saleDI.GetOrchestrator(sr).BuyBySpend(ctx, args[0])
	if err != nil {
		return err
	}
	printReceipt(out, r)
	return nil
}

func cmdBuy(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	exceeds, err := saleDI.GetReader(sr).ExceedsAvailable(ctx, args[0])
	if err != nil {
		return err
	}
	if exceeds {
		return fmt.Errorf("%s tokens exceeds the amount available to buy", args[0])
	}

	fmt.Fprintln(out, "Confirm the transaction in your wallet...")
	r, err := saleDI.GetOrchestrator(sr).BuyExact(ctx, args[0])
	if err != nil {
		return err
	}
	printReceipt(out, r)
	return nil
}

func cmdSell(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	progress := func(t saleDomain.SellTransition) {
		switch t.To {
		case saleDomain.SellApproving:
			fmt.Fprintln(out, "Allowance too low: confirm the approval in your wallet...")
		case saleDomain.SellSelling:
			fmt.Fprintln(out, "Confirm the sale in your wallet...")
		}
	}
	r, err := saleDI.GetOrchestrator(sr).Sell(ctx, args[0], progress)
	if err != nil {
		return err
	}
	printReceipt(out, r)
	return nil
}

func cmdWithdraw(ctx context.Context, sr di.ServiceRegistry, args []string, out io.Writer) error {
	o := saleDI.GetOrchestrator(sr)
	fmt.Fprintln(out, "Confirm the transaction in your wallet...")

	var (
		r   *saleDomain.TradeReceipt
		err error
	)
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		r, err = o.WithdrawAll(ctx)
	} else {
		r, err = o.Withdraw(ctx, args[0])
	}
	if err != nil {
		return err
	}
	printReceipt(out, r)
	return nil
}

func cmdWatch(ctx context.Context, sr di.ServiceRegistry, _ []string, _ io.Writer) error {
	stopHealth := startHealth(ctx, sr)
	defer stopHealth()

	mon := marketDI.GetMonitor(sr)
	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}
	<-ctx.Done()
	return mon.Stop()
}

func printReceipt(out io.Writer, r *saleDomain.TradeReceipt) {
	fmt.Fprintln(out, "Confirmed")
	if r.Approved() {
		fmt.Fprintf(out, "  Approval:  %s\n", r.ApprovalTxHash.Hex())
	}
	fmt.Fprintf(out, "  Tx:        %s\n", r.TxHash.Hex())
	fmt.Fprintf(out, "  Block:     #%d (gas used %d)\n", r.BlockNumber, r.GasUsed)
	if r.Tokens != nil {
		fmt.Fprintf(out, "  Tokens:    %s\n", r.Tokens.Decimal)
	}
	fmt.Fprintf(out, "  ETH:       %s\n", r.Value.Decimal)
	if r.ExplorerURL != "" {
		fmt.Fprintf(out, "  Explorer:  %s\n", r.ExplorerURL)
	}
	fmt.Fprintf(out, "  Intent:    %s\n", r.IntentID)
}

