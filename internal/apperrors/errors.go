package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when an infrastructure failure must not leak details to the caller.
var ErrInternal = errors.New("internal error")

// Accounting error kinds. They are recovered at the posting and closing boundaries,
// logged with a keyed message and returned to the caller for errors.Is checks.
var (
	ErrExerciseClosed        = errors.New("exercise is closed")
	ErrNoAccountingPlan      = errors.New("exercise has no accounting plan")
	ErrAllocationExhausted   = errors.New("no free sub-account code available")
	ErrUnbalancedEntry       = errors.New("journal entry is not balanced")
	ErrAlreadyPosted         = errors.New("document already has a journal entry")
	ErrMissingSpecialAccount = errors.New("special account could not be resolved")
	ErrZeroTotal             = errors.New("document total is zero")
	ErrTaxSubtotals          = errors.New("tax subtotals could not be computed")
)

// AppError wraps an infrastructure error with a status-like code and a readable message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
