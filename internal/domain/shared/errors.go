package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the engine. Every operation surfaces one of
// these synchronously; nothing is retried internally.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInvalidState          = "INVALID_STATE"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInsufficientLiquidity = "INSUFFICIENT_LIQUIDITY"
	CodeInvariantViolation    = "INVARIANT_VIOLATION"
	CodeCapacityExceeded      = "CAPACITY_EXCEEDED"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrNotFound              = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput          = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState          = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUnauthorized          = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInsufficientLiquidity = NewDomainError(CodeInsufficientLiquidity, "Insufficient liquid balance available")
	ErrInvariantViolation    = NewDomainError(CodeInvariantViolation, "Accounting invariant violated")
	ErrCapacityExceeded      = NewDomainError(CodeCapacityExceeded, "Capacity limit exceeded")
	ErrConcurrencyConflict   = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)
