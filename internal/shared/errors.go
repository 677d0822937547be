package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid user input.
	ErrValidation = errors.New("invalid input")
	// ErrSessionRequired occurs when an operation needs an operator session.
	ErrSessionRequired = errors.New("session required")
)

// UserSafeMessage converts internal errors into text safe to show operators.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrValidation):
		return "The submitted data is invalid."
	case errors.Is(err, ErrIdempotencyConflict):
		return "This action was already processed."
	case errors.Is(err, ErrSessionRequired):
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
