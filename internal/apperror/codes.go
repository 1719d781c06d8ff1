package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Token sale error codes
const (
	// Wallet / network
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeNetworkMismatch     Code = "NETWORK_MISMATCH"

	// Caller input
	CodeInvalidAmount Code = "INVALID_AMOUNT"

	// Pre-flight checks
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeNothingToWithdraw     Code = "NOTHING_TO_WITHDRAW"

	// Submission and finality
	CodeTransactionFailed  Code = "TRANSACTION_FAILED"
	CodeTransactionPending Code = "TRANSACTION_PENDING"

	// Remote reads
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"
	CodeRPCError           Code = "RPC_ERROR"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
