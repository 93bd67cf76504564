// Package errors provides custom error types for the hisaab ledger.
// All service-layer errors should use AppError so callers can tell the
// error classes apart (constraint, not found, conflict, integrity, no-op)
// without leaking storage details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Ledger error classes.
var (
	// ErrConstraint is returned when a value breaks a schema check: a
	// non-positive amount or an unknown mode, kind, direction or status.
	ErrConstraint = &AppError{Code: "CONSTRAINT_VIOLATION", Message: "Value violates a ledger constraint", StatusCode: http.StatusBadRequest}

	ErrConflict = &AppError{Code: "CONFLICT", Message: "Resource already exists", StatusCode: http.StatusConflict}

	// ErrIntegrity means seed data the ledger relies on is missing.
	ErrIntegrity = &AppError{Code: "INTEGRITY_ERROR", Message: "Ledger data is inconsistent", StatusCode: http.StatusInternalServerError}

	// ErrNothingToSettle rejects a settlement whose selection nets to zero.
	ErrNothingToSettle = &AppError{Code: "NOTHING_TO_SETTLE", Message: "Net settlement is zero", StatusCode: http.StatusUnprocessableEntity}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Loan and debt errors.
var (
	ErrPersonNotFound     = &AppError{Code: "PERSON_NOT_FOUND", Message: "Person not found", StatusCode: http.StatusNotFound}
	ErrLoanNotFound       = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan or debt record not found", StatusCode: http.StatusNotFound}
	ErrLoanAlreadySettled = &AppError{Code: "LOAN_ALREADY_SETTLED", Message: "Loan or debt record is already settled", StatusCode: http.StatusConflict}
	ErrPostingNotFound    = &AppError{Code: "POSTING_NOT_FOUND", Message: "Pending posting not found", StatusCode: http.StatusNotFound}
)
