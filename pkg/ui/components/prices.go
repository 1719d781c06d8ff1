// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PriceRow is one sale price, formatted.
type PriceRow struct {
	Side        string
	WeiPerToken string
	ETHPerToken string
}

// PricesComponent renders the sale prices.
type PricesComponent struct {
	rows []PriceRow
	note string
}

// NewPricesComponent creates a new prices component.
func NewPricesComponent() *PricesComponent {
	return &PricesComponent{rows: make([]PriceRow, 0)}
}

// Update replaces the price rows. A non-empty note is shown instead of the
// rows when the prices could not be read.
func (p *PricesComponent) Update(rows []PriceRow, note string) {
	p.rows = rows
	p.note = note
}

// View renders the prices component.
func (p *PricesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("PRICES"))
	sb.WriteString("\n\n")

	if len(p.rows) == 0 {
		msg := "Waiting for price data..."
		if p.note != "" {
			msg = p.note
		}
		sb.WriteString(dimStyle.Render("  " + msg))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-6s  %22s  %14s\n", "", "wei / token", "ETH / token"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 46)) + "\n")
	for _, row := range p.rows {
		sb.WriteString(fmt.Sprintf("  %-6s  %22s  %14s\n", row.Side, row.WeiPerToken, row.ETHPerToken))
	}
	return strings.TrimRight(sb.String(), "\n")
}
