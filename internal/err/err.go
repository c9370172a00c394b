package err

import (
	"errors"
	"fmt"
)

// Not-found class. Surfaced as 404, never retried.
var (
	ErrorAccountNotFound    = errors.New("account not found")
	ErrorSuspensionNotFound = errors.New("suspension not found")
	ErrorAppealNotFound     = errors.New("appeal not found")
)

// Conflicting-state class. Surfaced as 409, the caller must re-fetch
// state before retrying with corrected intent.
var (
	ErrorAlreadySuspended    = errors.New("account already has an active suspension")
	ErrorInvalidTransition   = errors.New("invalid account state transition")
	ErrorDuplicateAppeal     = errors.New("an appeal already exists for this suspension")
	ErrorSuspensionNotActive = errors.New("suspension is not active")
	ErrorDuplicateViolation  = errors.New("violation already recorded for this content")
)

// Validation class. Surfaced as 400, never retried.
var ErrorValidation = errors.New("validation error")

// Store class. The only class that is safe to retry with backoff.
var ErrorStoreUnavailable = errors.New("store unavailable")

// WrapValidation wraps a field-level message into the validation class.
func WrapValidation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrorValidation, fmt.Sprintf(format, args...))
}

// WrapStore wraps a persistence failure into the store class.
func WrapStore(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrorStoreUnavailable, op, cause)
}
