package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	saleDomain "github.com/fd1az/tokensale-client/business/sale/domain"
	"github.com/fd1az/tokensale-client/internal/apperror"
	"github.com/fd1az/tokensale-client/internal/asset"
	"github.com/fd1az/tokensale-client/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
	Note   string
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// QuoteDebounce is how long typing must pause before a preview is requested.
const QuoteDebounce = 250 * time.Millisecond

// TokenSymbol labels token amounts on the dashboard.
const TokenSymbol = saleDomain.TokenSymbol

var stepOrder = []string{"config", "wallet", "network", "market"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	svc    Services
	keys   KeyMap
	target string

	// Components
	account  *components.AccountComponent
	prices   *components.PricesComponent
	supply   *components.SupplyComponent
	activity *components.ActivityComponent
	form     ActionForm

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	quitting   bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry // Persistent error panel (last 3)
	sellStep   saleDomain.SellState

	// Startup state
	startupSteps map[string]*StartupStep
	startupTime  time.Time
}

// New creates a new TUI model. targetName is the chain the client trades on.
func New(svc Services, targetName string) Model {
	now := time.Now()
	return Model{
		svc:          svc,
		keys:         DefaultKeyMap(),
		target:       targetName,
		account:      components.NewAccountComponent(),
		prices:       components.NewPricesComponent(),
		supply:       components.NewSupplyComponent(),
		activity:     components.NewActivityComponent(50, 8),
		form:         NewActionForm(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		errors:       make([]ErrorEntry, 0, 3),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"wallet":  {Name: "Connecting wallet", Status: "pending"},
			"network": {Name: "Checking network", Status: "pending"},
			"market":  {Name: "Reading sale contracts", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
			step.Note = msg.Message
		}
		if m.phase == PhaseStartup && m.startupSettled() {
			m.phase = PhaseDashboard
		}

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)

	case WalletEventMsg:
		m.applyWalletEvent(msg.Event)

	case quoteDueMsg:
		if msg.Seq != m.form.seq {
			return m, nil
		}
		return m, m.quoteCmd()

	case QuoteMsg:
		m.form.applyQuote(msg)

	case SellProgressMsg:
		m.sellStep = msg.Transition.To
		if msg.Transition.To == saleDomain.SellApproving {
			m.feed(components.LevelInfo, "Approving the sale to move your tokens")
		}

	case TradeResultMsg:
		m.form.busy = false
		m.sellStep = saleDomain.SellIdle
		if msg.Err != nil {
			m.addError(fmt.Sprintf("%s failed: %s", msg.Action, apperror.UserMessage(msg.Err)))
			return m, nil
		}
		m.form.input.SetValue("")
		m.form.resetPreview()
		m.feed(components.LevelSuccess, describeReceipt(msg.Receipt))
		if m.svc.Refresh != nil {
			m.svc.Refresh()
		}

	case ErrorMsg:
		m.addError(apperror.UserMessage(msg.Error))

	case LogMsg:
		m.feed(msg.Level, msg.Message)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (msg.String() == "ctrl+c" || !m.form.busy) {
		m.quitting = true
		return m, tea.Quit
	}

	// During welcome phase, any other key skips to startup
	if m.phase == PhaseWelcome {
		m.leaveWelcome()
		return m, tickCmd()
	}
	if m.phase != PhaseDashboard || m.form.busy {
		return m, nil
	}

	if m.form.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.form.confirming = false
			m.form.busy = true
			return m, m.tradeCmd()
		case key.Matches(msg, m.keys.Cancel):
			m.form.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextAction):
		m.form.cycle(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevAction):
		m.form.cycle(-1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp):
		m.activity.ScrollUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.activity.ScrollDown()
		return m, nil
	case key.Matches(msg, m.keys.ClearErrors):
		m.errors = make([]ErrorEntry, 0, 3)
		return m, nil
	case key.Matches(msg, m.keys.ClearFeed):
		m.activity.Clear()
		return m, nil
	}

	if !acceptsKey(msg) {
		return m, nil
	}
	changed, cmd := m.form.edit(msg)
	if changed && m.form.action.Quoted() && m.form.Value() != "" {
		seq := m.form.seq
		cmd = tea.Batch(cmd, tea.Tick(QuoteDebounce, func(time.Time) tea.Msg {
			return quoteDueMsg{Seq: seq}
		}))
	}
	return m, cmd
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// startupSettled reports whether no step is still waiting.
func (m Model) startupSettled() bool {
	for _, step := range m.startupSteps {
		if step.Status == "pending" || step.Status == "connecting" {
			return false
		}
	}
	return true
}

// submit moves the form to its confirmation prompt when the input allows it.
func (m *Model) submit() {
	f := &m.form
	if f.Value() == "" && !f.action.allowsEmpty() {
		m.addError("Enter an amount first")
		return
	}
	if f.action.Quoted() {
		if f.previewErr != "" {
			m.addError(f.previewErr)
			return
		}
		if f.preview == "" {
			m.addError("Wait for the quote to load")
			return
		}
		if f.exceeds {
			m.addError("Amount exceeds the tokens available to buy")
			return
		}
	}
	f.confirming = true
}

func (m Model) quoteCmd() tea.Cmd {
	seq, action, amount := m.form.seq, m.form.action, m.form.Value()
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		out := QuoteMsg{Seq: seq, Action: action}
		switch action {
		case ActionBuyExact:
			out.Quote, out.Err = svc.Quotes.QuoteBuy(ctx, amount)
			if out.Err == nil && svc.Supply != nil {
				// The availability check is advisory; a failed read leaves it unset.
				out.Exceeds, _ = svc.Supply.ExceedsAvailable(ctx, amount)
			}
		case ActionSell:
			out.Quote, out.Err = svc.Quotes.QuoteSell(ctx, amount)
		}
		if out.Err != nil {
			out.Err = errors.New(apperror.UserMessage(out.Err))
		}
		return out
	}
}

// tradeCmd runs the confirmed operation. There is no deadline: the wallet may
// wait on the user for as long as it likes.
func (m Model) tradeCmd() tea.Cmd {
	action, amount := m.form.action, m.form.Value()
	trades := m.svc.Trades
	return func() tea.Msg {
		ctx := context.Background()
		var (
			r   *saleDomain.TradeReceipt
			err error
		)
		switch action {
		case ActionBuyETH:
			r, err = trades.BuyBySpend(ctx, amount)
		case ActionBuyExact:
			r, err = trades.BuyExact(ctx, amount)
		case ActionSell:
			r, err = trades.Sell(ctx, amount, func(t saleDomain.SellTransition) {
				Send(SellProgressMsg{Transition: t})
			})
		case ActionWithdraw:
			if amount == "" {
				r, err = trades.WithdrawAll(ctx)
			} else {
				r, err = trades.Withdraw(ctx, amount)
			}
		}
		return TradeResultMsg{Action: action, Receipt: r, Err: err}
	}
}

func (m *Model) applySnapshot(s saleDomain.MarketSnapshot) {
	m.lastUpdate = s.TakenAt
	info := m.account.Info()
	info.TokenSymbol = TokenSymbol
	info.Target = m.target
	if s.Account != (common.Address{}) {
		info.Account = s.Account.Hex()
	}
	if s.Err != nil {
		info.NetworkOK = false
		info.NetworkNote = apperror.UserMessage(s.Err)
		info.ETH, info.Token = saleDomain.Unavailable, saleDomain.Unavailable
		m.account.Update(info)
		m.prices.Update(nil, "Unavailable")
		m.supply.Update(components.Supply{})
		return
	}

	info.Chain = s.ChainID
	info.NetworkOK = true
	info.NetworkNote = ""
	info.ETH = saleDomain.Display(s.AccountETH)
	info.Token = saleDomain.Display(s.AccountToken)
	m.account.Update(info)

	if s.Prices != nil {
		m.prices.Update([]components.PriceRow{
			{Side: "Buy", WeiPerToken: s.Prices.Buy.BaseUnits.String(), ETHPerToken: s.Prices.Buy.Decimal},
			{Side: "Sell", WeiPerToken: s.Prices.Sell.BaseUnits.String(), ETHPerToken: s.Prices.Sell.Decimal},
		}, "")
	} else {
		m.prices.Update(nil, "Unavailable")
	}

	sup := components.Supply{SaleLiquidity: saleDomain.Display(s.SaleLiquidity)}
	if s.Supply != nil {
		d := s.Supply.Decimals
		sup.MaxSupply = asset.FormatUnits(s.Supply.MaxSupply, d)
		sup.TotalSupply = asset.FormatUnits(s.Supply.TotalSupply, d)
		sup.SaleReserve = asset.FormatUnits(s.Supply.SaleReserve, d)
		sup.AvailableToBuy = asset.FormatUnits(s.Supply.AvailableToBuy(), d)
	}
	m.supply.Update(sup)
}

func (m *Model) applyWalletEvent(ev connectionDomain.WalletEvent) {
	info := m.account.Info()
	switch ev.Kind {
	case connectionDomain.EventAccountChanged:
		if ev.Account == (common.Address{}) {
			info.Account = ""
			m.feed(components.LevelWarn, "Wallet locked or no account exposed")
		} else {
			info.Account = ev.Account.Hex()
			m.feed(components.LevelInfo, "Account changed to "+shortAddress(ev.Account))
		}
	case connectionDomain.EventChainChanged:
		info.Chain = ev.ChainID
		m.feed(components.LevelInfo, "Wallet switched to chain "+ev.ChainID)
	case connectionDomain.EventNetworkChecked:
		info.NetworkOK = ev.Err == nil
		info.NetworkNote = ""
		if ev.Err != nil {
			info.NetworkNote = apperror.UserMessage(ev.Err)
			m.feed(components.LevelWarn, info.NetworkNote)
		}
	}
	m.account.Update(info)
}

func (m *Model) feed(level, message string) {
	m.activity.Add(components.ActivityRow{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	})
}

func (m *Model) addError(message string) {
	m.feed(components.LevelError, message)
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

func describeReceipt(r *saleDomain.TradeReceipt) string {
	if r == nil {
		return "Transaction confirmed"
	}
	var what string
	switch r.Kind {
	case saleDomain.TradeBuyBySpend:
		what = fmt.Sprintf("Bought with %s ETH", r.Value.Decimal)
	case saleDomain.TradeBuyExact:
		what = fmt.Sprintf("Bought %s %s for %s ETH", saleDomain.Display(r.Tokens), TokenSymbol, r.Value.Decimal)
	case saleDomain.TradeSell:
		what = fmt.Sprintf("Sold %s %s for %s ETH", saleDomain.Display(r.Tokens), TokenSymbol, r.Value.Decimal)
	case saleDomain.TradeWithdraw:
		what = fmt.Sprintf("Withdrew %s ETH", r.Value.Decimal)
	}
	return fmt.Sprintf("%s in block #%d %s", what, r.BlockNumber, r.ExplorerURL)
}

func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Token Sale "))
	b.WriteString("  ")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.account.View(), "", m.prices.View(), "", m.supply.View())
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.form.View(), "", m.activity.View())

	if m.width > 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(m.width/2-2).Render(left),
			BoxStyle.Width(m.width/2-2).Render(right)))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n\n")

	// Persistent error panel (show last 3 errors)
	if len(m.errors) > 0 {
		b.WriteString(ErrorText.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorText.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("q: quit • tab: action • enter: submit • ↑↓: scroll • c: clear"))
	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	logo := `
   ████████╗ ██████╗ ██╗  ██╗███████╗███╗   ██╗
   ╚══██╔══╝██╔═══██╗██║ ██╔╝██╔════╝████╗  ██║
      ██║   ██║   ██║█████╔╝ █████╗  ██╔██╗ ██║
      ██║   ██║   ██║██╔═██╗ ██╔══╝  ██║╚██╗██║
      ██║   ╚██████╔╝██║  ██╗███████╗██║ ╚████║
      ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═══╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("                  S A L E   C L I E N T"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(TitleStyle.Render(" Token Sale "))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range stepOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Connecting...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Failed", failedStyle
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		line := fmt.Sprintf("  %s %s %s", style.Render(icon), MutedValue.Render(step.Name), style.Render(statusText))
		if step.Note != "" {
			line += " " + MutedValue.Render("("+step.Note+")")
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.form.busy {
		label := "Waiting for wallet"
		if m.sellStep != saleDomain.SellIdle {
			label = "Sell: " + m.sellStep.String()
		}
		parts = append(parts, StatusPending.Render("◐ "+label))
	}

	info := m.account.Info()
	if info.NetworkOK {
		parts = append(parts, StatusConnected.Render("● "+m.target))
	} else {
		parts = append(parts, StatusDisconnected.Render("○ "+m.target+" (not ready)"))
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run(svc Services, targetName string) error {
	Program = tea.NewProgram(New(svc, targetName), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	// Call OnStartModules callback when StartModulesMsg is sent
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
