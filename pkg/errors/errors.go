// Package errors is the transport side of error handling: every error that
// reaches a handler is turned into an AppError with a stable code.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"pantry/domain/shared"
)

// ErrorCode is the machine readable code in every error response.
type ErrorCode string

const (
	CodeInternal        ErrorCode = ErrorCode(shared.CodeInternal)
	CodeValidation      ErrorCode = ErrorCode(shared.CodeValidation)
	CodeBusinessRule    ErrorCode = ErrorCode(shared.CodeBusinessRule)
	CodeNotFound        ErrorCode = ErrorCode(shared.CodeNotFound)
	CodeConflict        ErrorCode = ErrorCode(shared.CodeConflict)
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
)

var defaultStatus = map[ErrorCode]int{
	CodeBadRequest:      http.StatusBadRequest,
	CodeValidation:      http.StatusBadRequest,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeBusinessRule:    http.StatusUnprocessableEntity,
	CodeTooManyRequests: http.StatusTooManyRequests,
}

// AppError is the transport facing error. Status overrides the code's
// default HTTP status when set.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Status  int       `json:"-"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) HTTPStatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := defaultStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func Unauthorized(message string) *AppError    { return New(CodeUnauthorized, message) }
func TooManyRequests(message string) *AppError { return New(CodeTooManyRequests, message) }

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// MapDomainError converts any error into an AppError. Domain errors keep
// their message, field and status hint; everything else becomes an internal
// error whose message is not exposed.
func MapDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return Wrap(err, CodeInternal, "internal server error")
	}
	return &AppError{
		Code:    ErrorCode(shared.CodeOf(err)),
		Message: domainErr.Message,
		Field:   domainErr.Field,
		Status:  shared.StatusHintOf(err),
		Err:     err,
	}
}
