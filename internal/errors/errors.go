// Package errors provides custom error types for the HomeFund API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrPermissionDenied   = &AppError{Code: "PERMISSION_DENIED", Message: "Only the household owner may perform this action", StatusCode: http.StatusForbidden}
)

// Engine errors. These are the tagged outcomes every ledger operation can
// surface to its caller.
var (
	ErrValidationFailed   = &AppError{Code: "VALIDATION_FAILED", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrPhaseViolation     = &AppError{Code: "PHASE_VIOLATION", Message: "Movement type is not permitted in the period's current phase", StatusCode: http.StatusConflict}
	ErrPreconditionNotMet = &AppError{Code: "PRECONDITION_NOT_MET", Message: "Period cannot be locked until the household budget and every member income are configured", StatusCode: http.StatusPreconditionFailed}
	ErrStaleTransition    = &AppError{Code: "STALE_TRANSITION", Message: "Period is no longer in the expected phase", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Household errors.
var (
	ErrHouseholdNotFound  = &AppError{Code: "HOUSEHOLD_NOT_FOUND", Message: "Household not found", StatusCode: http.StatusNotFound}
	ErrMembershipNotFound = &AppError{Code: "MEMBERSHIP_NOT_FOUND", Message: "User is not a member of this household", StatusCode: http.StatusNotFound}
	ErrDuplicateMember    = &AppError{Code: "DUPLICATE_MEMBER", Message: "User is already a member of this household", StatusCode: http.StatusConflict}
)

// Period errors.
var (
	ErrPeriodNotFound  = &AppError{Code: "PERIOD_NOT_FOUND", Message: "Monthly period not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePeriod = &AppError{Code: "DUPLICATE_PERIOD", Message: "A period for this month already exists", StatusCode: http.StatusConflict}
)

// Ledger errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCreditNotFound      = &AppError{Code: "CREDIT_NOT_FOUND", Message: "Credit not found", StatusCode: http.StatusNotFound}
	ErrCreditAlreadyUsed   = &AppError{Code: "CREDIT_ALREADY_APPLIED", Message: "Credit has already been applied", StatusCode: http.StatusConflict}
	ErrLoanNotFound        = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan not found", StatusCode: http.StatusNotFound}
	ErrLoanAlreadyApproved = &AppError{Code: "LOAN_ALREADY_APPROVED", Message: "Loan has already been approved", StatusCode: http.StatusConflict}
)
