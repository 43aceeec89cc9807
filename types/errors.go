package types

import "fmt"

// Error codes surfaced by the gateway. Every failure aborts the whole
// settlement; callers branch on the code, not the message.
const (
	// State gate
	ErrPaused = "PAUSED"

	// Authorization
	ErrUnauthorized = "UNAUTHORIZED"

	// Input validation
	ErrInvalidAmount = "INVALID_AMOUNT"
	ErrInvalidFee    = "INVALID_FEE"
	ErrNameTooLong   = "NAME_TOO_LONG"

	// Compatibility
	ErrInvalidToken          = "INVALID_TOKEN"
	ErrInvalidTokenAccount   = "INVALID_TOKEN_ACCOUNT"
	ErrInvalidMerchantWallet = "INVALID_MERCHANT_WALLET"
	ErrInvalidFeeWallet      = "INVALID_FEE_WALLET"

	// Resource availability
	ErrMissingMint         = "MISSING_MINT"
	ErrMissingAccount      = "MISSING_ACCOUNT"
	ErrInsufficientBalance = "INSUFFICIENT_BALANCE"

	// Arithmetic
	ErrCalculationError = "CALCULATION_ERROR"

	// Idempotency
	ErrDuplicatePayment = "DUPLICATE_PAYMENT"

	// Record lifecycle
	ErrAlreadyInitialized = "ALREADY_INITIALIZED"
	ErrNotInitialized     = "NOT_INITIALIZED"
	ErrMerchantExists     = "MERCHANT_EXISTS"
	ErrMerchantNotFound   = "MERCHANT_NOT_FOUND"
	ErrPaymentNotFound    = "PAYMENT_NOT_FOUND"
	ErrStoreError         = "STORE_ERROR"

	// Request parsing
	ErrInvalidRequest = "INVALID_REQUEST"
)

// GatewayError is the error type returned by every gateway operation.
type GatewayError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is comparisons match on code alone, so callers can use
// sentinel GatewayError values without caring about the message.
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a GatewayError with a formatted message.
func NewError(code, format string, args ...interface{}) *GatewayError {
	return &GatewayError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrCode extracts the gateway error code from err, or "" when err is not a
// GatewayError.
func ErrCode(err error) string {
	if err == nil {
		return ""
	}
	if ge, ok := err.(*GatewayError); ok {
		return ge.Code
	}
	return ""
}

// IsCode reports whether err is a GatewayError carrying the given code.
func IsCode(err error, code string) bool {
	return ErrCode(err) == code
}
