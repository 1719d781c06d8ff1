// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AccountInfo is the wallet side of the dashboard, already formatted.
type AccountInfo struct {
	Account     string
	Chain       string
	Target      string
	NetworkOK   bool
	NetworkNote string
	ETH         string
	Token       string
	TokenSymbol string
}

// AccountComponent renders the network and account panel.
type AccountComponent struct {
	info AccountInfo
}

// NewAccountComponent creates a new account component.
func NewAccountComponent() *AccountComponent {
	return &AccountComponent{info: AccountInfo{ETH: "-", Token: "-"}}
}

// Update replaces the displayed info.
func (a *AccountComponent) Update(info AccountInfo) {
	a.info = info
}

// Info returns the displayed info.
func (a *AccountComponent) Info() AccountInfo {
	return a.info
}

// View renders the account component.
func (a *AccountComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	account := a.info.Account
	if account == "" {
		account = "Not connected"
	}

	network := badStyle.Render("○ " + orDash(a.info.Chain))
	if a.info.NetworkOK {
		network = okStyle.Render("● " + a.info.Target)
	}
	if a.info.NetworkNote != "" {
		network += " " + labelStyle.Render("("+a.info.NetworkNote+")")
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACCOUNT"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Address  "), account))
	sb.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Network  "), network))
	sb.WriteString(fmt.Sprintf("  %s %s ETH\n", labelStyle.Render("Your ETH "), orDash(a.info.ETH)))
	sb.WriteString(fmt.Sprintf("  %s %s %s", labelStyle.Render("Your TKN "), orDash(a.info.Token), a.info.TokenSymbol))
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
