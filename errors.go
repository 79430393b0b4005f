package bazaar

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("bazaar: not found")
	ErrInvalidInput = errors.New("bazaar: invalid input")
	ErrUnauthorized = errors.New("bazaar: unauthorized")

	// Creator errors
	ErrAlreadyRegistered = errors.New("bazaar: creator already registered")
	ErrNotRegistered     = errors.New("bazaar: principal is not a registered creator")
	ErrCreatorNotFound   = errors.New("bazaar: creator not found")

	// Content errors
	ErrContentNotFound = errors.New("bazaar: content not found")
	ErrContentInactive = errors.New("bazaar: content is not active")

	// Settlement errors
	ErrIncorrectPayment = errors.New("bazaar: payment does not match content price")
	ErrAlreadyPurchased = errors.New("bazaar: content already purchased")
	ErrSelfPurchase     = errors.New("bazaar: creators cannot purchase their own content")
	ErrTransferFailed   = errors.New("bazaar: fund transfer failed")

	// Payment errors
	ErrPaymentsNotConfigured = errors.New("bazaar: no payment transferer configured")

	// Store errors
	ErrStoreClosed = errors.New("bazaar: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bazaar: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCreatorNotFound) ||
		errors.Is(err, ErrContentNotFound)
}

// IsValidation returns true if the error indicates a rejected input. The
// request failed a precondition and retrying without changes will fail again.
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrContentInactive) ||
		errors.Is(err, ErrIncorrectPayment) ||
		errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrSelfPurchase) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried. A failed transfer left no ledger state behind, so replaying the
// same purchase is safe.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}
