package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot field names used as keys in MarketSnapshot.Errors.
const (
	FieldAccountETH   = "account_eth"
	FieldAccountToken = "account_token"
	FieldPrices       = "prices"
	FieldSupply       = "supply"
	FieldLiquidity    = "sale_liquidity"
)

// Unavailable is how a figure that could not be read is displayed.
const Unavailable = "-"

// AccountBalances are the active account's holdings.
type AccountBalances struct {
	Account common.Address
	ETH     Quote
	Token   Quote
}

// MarketSnapshot is one passive refresh of everything the dashboard shows.
// A nil field could not be read; the reason is in Errors.
type MarketSnapshot struct {
	TakenAt time.Time

	Account common.Address
	ChainID string

	AccountETH    *Quote
	AccountToken  *Quote
	Prices        *PricePair
	Supply        *SupplyInfo
	SaleLiquidity *Quote

	// Err is set when the session or network check failed, in which case no
	// field was read.
	Err    error
	Errors map[string]error
}

// Available reports whether field was read successfully.
func (s *MarketSnapshot) Available(field string) bool {
	if s.Err != nil {
		return false
	}
	_, failed := s.Errors[field]
	return !failed
}

// Display renders q or Unavailable.
func Display(q *Quote) string {
	if q == nil {
		return Unavailable
	}
	return q.String()
}
