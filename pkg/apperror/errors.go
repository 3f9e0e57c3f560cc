package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the closed set of failure categories the
// core can produce. Callers branch on Kind, never on concrete error identity.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindExpired     Kind = "expired"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ---- Validation (VAL) ----

func ErrInvalidAmount(minSats int64) *AppError {
	return New(KindValidation, "VAL_001",
		fmt.Sprintf("Amount must be a positive integer of at least %d sats", minSats),
		http.StatusBadRequest)
}

func ErrInvalidAddress() *AppError {
	return New(KindValidation, "VAL_002", "Invalid customer address", http.StatusBadRequest)
}

func ErrInvalidReference() *AppError {
	return New(KindValidation, "VAL_003", "Invalid settlement reference", http.StatusBadRequest)
}

// Validation returns a generic validation error with a custom message.
func Validation(message string) *AppError {
	return New(KindValidation, "VAL_000", message, http.StatusBadRequest)
}

// ---- Payment lifecycle (PAY) ----

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "PAY_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyProcessed() *AppError {
	return New(KindConflict, "PAY_002", "Payment intent already processed", http.StatusConflict)
}

func ErrIntentExpired() *AppError {
	return New(KindExpired, "PAY_003", "Payment intent has expired", http.StatusBadRequest)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error. An error that a
// lower layer already classified keeps its kind and code instead of being
// demoted to internal.
func InternalError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrStorageUnavailable(err error) *AppError {
	return Wrap(KindUnavailable, "SYS_002", "Storage is unavailable", http.StatusServiceUnavailable, err)
}

func ErrPoolExhausted(err error) *AppError {
	return Wrap(KindUnavailable, "SYS_003", "Connection pool exhausted, retry later", http.StatusServiceUnavailable, err)
}
