package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// TradeKind identifies a write operation.
type TradeKind string

const (
	TradeBuyBySpend TradeKind = "buy_eth"
	TradeBuyExact   TradeKind = "buy"
	TradeSell       TradeKind = "sell"
	TradeWithdraw   TradeKind = "withdraw"
)

// TradeReceipt is the confirmed outcome of one write operation.
type TradeReceipt struct {
	// IntentID ties log lines, spans and the receipt of one user intent.
	IntentID uuid.UUID
	Kind     TradeKind
	Account  common.Address

	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64

	// ApprovalTxHash is set when a sell had to approve first.
	ApprovalTxHash *common.Hash

	// Tokens is nil when the client cannot know the token amount, as for a
	// plain value transfer priced by the contract.
	Tokens *Quote

	// Value is the native amount paid, refunded, or withdrawn.
	Value Quote

	ExplorerURL string
	ConfirmedAt time.Time
}

// Approved reports whether an approval was submitted.
func (r *TradeReceipt) Approved() bool {
	return r.ApprovalTxHash != nil
}
