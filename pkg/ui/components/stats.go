// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Supply holds the formatted supply and liquidity figures.
type Supply struct {
	MaxSupply      string
	TotalSupply    string
	SaleReserve    string
	AvailableToBuy string
	SaleLiquidity  string
}

// SupplyComponent renders the supply and sale liquidity panel.
type SupplyComponent struct {
	supply Supply
}

// NewSupplyComponent creates a new supply component.
func NewSupplyComponent() *SupplyComponent {
	return &SupplyComponent{}
}

// Update replaces the figures.
func (s *SupplyComponent) Update(supply Supply) {
	s.supply = supply
}

// View renders the supply component.
func (s *SupplyComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	line := func(label, value string) string {
		return fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-17s", label)), valueStyle.Render(orDash(value)))
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("SUPPLY"))
	sb.WriteString("\n\n")
	sb.WriteString(line("Max supply", s.supply.MaxSupply))
	sb.WriteString(line("Total supply", s.supply.TotalSupply))
	sb.WriteString(line("Sale reserve", s.supply.SaleReserve))
	sb.WriteString(line("Available to buy", s.supply.AvailableToBuy))
	sb.WriteString(line("Sale ETH", s.supply.SaleLiquidity))
	return strings.TrimRight(sb.String(), "\n")
}
