package domain

import "errors"

// Wallet-level signals. Adapters wrap the raw wallet error with these so
// callers can branch with errors.Is.
var (
	// ErrNoProvider means no wallet provider could be found or reached.
	ErrNoProvider = errors.New("no wallet provider")

	// ErrUnrecognizedChain means the wallet does not know the requested chain
	// (EIP-1193 code 4902).
	ErrUnrecognizedChain = errors.New("wallet does not recognize chain")

	// ErrUserRejected means the user declined the request (EIP-1193 code 4001).
	ErrUserRejected = errors.New("user rejected request")

	// ErrNoAccount means the wallet exposed no account.
	ErrNoAccount = errors.New("wallet exposed no account")
)
