package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeProviderUnavailable: "No wallet provider detected",
	CodeNetworkMismatch:     "Wallet is not on the required network",

	CodeInvalidAmount: "Amount must be a positive number",

	CodeInsufficientLiquidity: "Sale contract lacks sufficient ETH for refund",
	CodeNothingToWithdraw:     "No ETH balance to withdraw",

	CodeTransactionFailed:  "Transaction failed",
	CodeTransactionPending: "Transaction submitted but not yet confirmed",

	CodeContractCallFailed: "Contract call failed",
	CodeRPCError:           "RPC request failed",

	CodeCircuitOpen: "Remote endpoint temporarily unavailable",
}
