package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest is an unsigned transaction handed to the wallet. Gas and fees are
// left to the wallet.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int // nil means zero
	Data  []byte
}

// WalletEventKind distinguishes wallet notifications.
type WalletEventKind string

const (
	EventAccountChanged WalletEventKind = "account_changed"
	EventChainChanged   WalletEventKind = "chain_changed"
	EventNetworkChecked WalletEventKind = "network_checked"
)

// WalletEvent is a refresh hint for observers. It never carries computed results.
type WalletEvent struct {
	Kind    WalletEventKind
	Account common.Address // zero when the wallet locked or exposed no account
	ChainID string
	Err     error // set when the follow-up network check failed
}
