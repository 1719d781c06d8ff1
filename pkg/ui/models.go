// Package ui provides the Bubble Tea TUI for the token sale client.
package ui

import (
	"context"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
)

// Quoter previews buy costs and sell refunds.
type Quoter interface {
	QuoteBuy(ctx context.Context, tokenAmount string) (saleDomain.Quote, error)
	QuoteSell(ctx context.Context, tokenAmount string) (saleDomain.Quote, error)
}

// AvailabilityChecker gates buy-exact against the available supply.
type AvailabilityChecker interface {
	ExceedsAvailable(ctx context.Context, tokenAmount string) (bool, error)
}

// Trader runs the write operations.
type Trader interface {
	BuyBySpend(ctx context.Context, ethAmount string) (*saleDomain.TradeReceipt, error)
	BuyExact(ctx context.Context, tokenAmount string) (*saleDomain.TradeReceipt, error)
	Sell(ctx context.Context, tokenAmount string, observers ...saleDomain.SellObserver) (*saleDomain.TradeReceipt, error)
	Withdraw(ctx context.Context, ethAmount string) (*saleDomain.TradeReceipt, error)
	WithdrawAll(ctx context.Context) (*saleDomain.TradeReceipt, error)
}

// Services are the application services the dashboard drives.
type Services struct {
	Quotes Quoter
	Supply AvailabilityChecker
	Trades Trader

	// Refresh, when set, asks for an immediate market refresh.
	Refresh func()
}

// Action is one of the dashboard's write operations.
type Action int

const (
	ActionBuyETH Action = iota
	ActionBuyExact
	ActionSell
	ActionWithdraw
)

var actions = []Action{ActionBuyETH, ActionBuyExact, ActionSell, ActionWithdraw}

func (a Action) String() string {
	switch a {
	case ActionBuyETH:
		return "Buy with ETH"
	case ActionBuyExact:
		return "Buy tokens"
	case ActionSell:
		return "Sell tokens"
	case ActionWithdraw:
		return "Withdraw"
	default:
		return "Unknown"
	}
}

// Unit is what the input amount is denominated in.
func (a Action) Unit() string {
	switch a {
	case ActionBuyExact, ActionSell:
		return TokenSymbol
	default:
		return "ETH"
	}
}

// Quoted reports whether the action shows a live preview.
func (a Action) Quoted() bool {
	return a == ActionBuyExact || a == ActionSell
}

// allowsEmpty reports whether submitting with no amount is meaningful.
func (a Action) allowsEmpty() bool {
	return a == ActionWithdraw
}

// ActionForm is the amount entry with its live preview.
type ActionForm struct {
	action Action
	input  textinput.Model

	seq        uint64
	preview    string
	previewErr string
	exceeds    bool

	confirming bool
	busy       bool
}

// NewActionForm creates a form on the first action.
func NewActionForm() ActionForm {
	in := textinput.New()
	in.Placeholder = "0.0"
	in.CharLimit = 40
	in.Width = 24
	in.Focus()
	return ActionForm{action: ActionBuyETH, input: in}
}

// Action returns the selected action.
func (f ActionForm) Action() Action { return f.action }

// Value returns the entered amount.
func (f ActionForm) Value() string { return strings.TrimSpace(f.input.Value()) }

// Busy reports whether a write is in flight.
func (f ActionForm) Busy() bool { return f.busy }

// Confirming reports whether the form waits for y/n.
func (f ActionForm) Confirming() bool { return f.confirming }

// cycle moves to the next or previous action and clears the input.
func (f *ActionForm) cycle(step int) {
	idx := 0
	for i, a := range actions {
		if a == f.action {
			idx = i
		}
	}
	idx = (idx + step + len(actions)) % len(actions)
	f.action = actions[idx]
	f.input.SetValue("")
	f.resetPreview()
	f.confirming = false
}

func (f *ActionForm) resetPreview() {
	f.seq++
	f.preview = ""
	f.previewErr = ""
	f.exceeds = false
}

// acceptsKey filters input down to what a decimal amount can contain.
func acceptsKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !unicode.IsDigit(r) && r != '.' {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// edit applies a key to the input. It reports whether the value changed.
func (f *ActionForm) edit(msg tea.KeyMsg) (bool, tea.Cmd) {
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() == before {
		return false, cmd
	}
	f.resetPreview()
	return true, cmd
}

// applyQuote stores a preview if it is for the current input.
func (f *ActionForm) applyQuote(msg QuoteMsg) bool {
	if msg.Seq != f.seq || msg.Action != f.action {
		return false
	}
	if msg.Err != nil {
		f.preview = ""
		f.previewErr = msg.Err.Error()
		f.exceeds = false
		return true
	}
	f.preview = msg.Quote.Decimal
	f.previewErr = ""
	f.exceeds = msg.Exceeds
	return true
}

// View renders the form.
func (f ActionForm) View() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("ACTION"))
	sb.WriteString("\n\n ")
	for _, a := range actions {
		if a == f.action {
			sb.WriteString(ActiveTab.Render(a.String()))
		} else {
			sb.WriteString(InactiveTab.Render(a.String()))
		}
	}
	sb.WriteString("\n\n  ")
	sb.WriteString(f.input.View())
	sb.WriteString(" " + MutedValue.Render(f.action.Unit()))
	sb.WriteString("\n\n  ")

	switch {
	case f.busy:
		sb.WriteString(StatusPending.Render("Waiting for wallet and confirmation..."))
	case f.confirming:
		sb.WriteString(ConfirmStyle.Render(f.confirmText() + "  [y/n]"))
	default:
		sb.WriteString(f.previewText())
	}
	return sb.String()
}

func (f ActionForm) previewText() string {
	switch f.action {
	case ActionBuyETH:
		return MutedValue.Render("Sends ETH to the sale contract, which prices the purchase")
	case ActionWithdraw:
		return MutedValue.Render("Owner only. Leave empty to withdraw the whole balance")
	}
	if f.Value() == "" {
		return MutedValue.Render("Enter an amount")
	}
	if f.previewErr != "" {
		return ErrorText.Render(f.previewErr)
	}
	if f.preview == "" {
		return MutedValue.Render("Quoting...")
	}
	label := "Cost"
	if f.action == ActionSell {
		label = "Refund"
	}
	text := SuccessText.Render(label + ": " + f.preview + " ETH")
	if f.exceeds {
		text = DisabledValue.Render(label+": "+f.preview+" ETH") + " " +
			ErrorText.Render("exceeds available to buy")
	}
	return text
}

func (f ActionForm) confirmText() string {
	switch f.action {
	case ActionBuyETH:
		return "Send " + f.Value() + " ETH to the sale?"
	case ActionBuyExact:
		return "Buy " + f.Value() + " TKN for " + f.preview + " ETH?"
	case ActionSell:
		return "Sell " + f.Value() + " TKN for " + f.preview + " ETH?"
	case ActionWithdraw:
		if f.Value() == "" {
			return "Withdraw the entire sale balance?"
		}
		return "Withdraw " + f.Value() + " ETH?"
	}
	return ""
}
