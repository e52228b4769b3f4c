package shared

import "errors"

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

// Common domain errors
var (
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")

	// ErrInsufficientStock is a business rule violation surfaced to the
	// caller as-is; it is never retried automatically.
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")

	// ErrConcurrencyConflict is transient: the caller re-reads and retries
	// the whole unit of work, bounded by a retry budget.
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")

	// ErrAccountNotFound means no active ledger account exists for a
	// required role. This is a tenant configuration defect and is never
	// silently substituted with a default account.
	ErrAccountNotFound = NewDomainError("ACCOUNT_NOT_FOUND", "No active account configured for role")

	// ErrUnbalancedEntry indicates a posting whose debits and credits do
	// not match. It signals a defect in amount derivation, not user error.
	ErrUnbalancedEntry = NewDomainError("UNBALANCED_ENTRY", "Ledger entry set does not balance")

	// ErrInvalidCostingInput rejects negative quantities or unit costs
	// before any mutation occurs.
	ErrInvalidCostingInput = NewDomainError("INVALID_COSTING_INPUT", "Invalid quantity or unit cost for costing")

	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
)

// IsDomainError reports whether err is (or wraps) a DomainError with the
// given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
