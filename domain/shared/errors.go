/*
Package shared holds the building blocks every bounded context in pantry uses:
value objects, domain events, the aggregate base, specifications and the
error taxonomy.

Error design:
 1. Each error kind is a sentinel, so callers branch with errors.Is().
 2. DomainError captures the call stack at construction and formats it lazily.
 3. Duplicate and operation-not-allowed errors are also business-rule errors.
 4. Codes and status hints are stable; mapping them to a transport is the
    caller's job.
*/
package shared

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ============================================================================
// Error kinds
// ============================================================================

var (
	// ErrRequiredField a mandatory value was empty or absent
	ErrRequiredField = errors.New("required field")

	// ErrInvalidField a value failed a format, range or length rule
	ErrInvalidField = errors.New("invalid field")

	// ErrBusinessRule a cross-field or cross-entity invariant was violated
	ErrBusinessRule = errors.New("business rule violation")

	// ErrDuplicate a uniqueness rule was violated
	ErrDuplicate = errors.New("duplicate")

	// ErrOperationNotAllowed an operation was attempted outside its allowed state
	ErrOperationNotAllowed = errors.New("operation not allowed")

	// ErrNotFound the referenced entity does not exist or is hidden from the caller
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification optimistic lock conflict, the caller should retry
	ErrConcurrentModification = errors.New("concurrent modification")
)

// kindParents lists kinds that are refinements of another kind.
var kindParents = map[error]error{
	ErrDuplicate:           ErrBusinessRule,
	ErrOperationNotAllowed: ErrBusinessRule,
}

// Code is the machine readable error code consumed by the API layer.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeBusinessRule Code = "BUSINESS_RULE_VIOLATION"
	CodeNotFound     Code = "RESOURCE_NOT_FOUND"
	CodeConflict     Code = "CONCURRENT_MODIFICATION"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// ============================================================================
// DomainError
// ============================================================================

// DomainError carries the kind, business context and the stack of the place
// the error was raised.
type DomainError struct {
	// Kind is one of the sentinels above
	Kind error

	// Entity the entity the error is about (e.g. "ingredient")
	Entity string

	// Field optional, set for validation errors
	Field string

	// Message human readable description
	Message string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the kind to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Kind
}

// Is reports whether target is the kind or one of its parent kinds.
func (e *DomainError) Is(target error) bool {
	for kind := e.Kind; kind != nil; kind = kindParents[kind] {
		if kind == target {
			return true
		}
	}
	return false
}

// Code returns the stable error code of the kind.
func (e *DomainError) Code() Code {
	return CodeOf(e)
}

// HTTPStatus returns the status hint for the kind.
func (e *DomainError) HTTPStatus() int {
	return StatusHintOf(e)
}

// Stack formats the captured stack on demand.
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CodeOf returns the code for any error, CodeInternal when it is not a domain error.
func CodeOf(err error) Code {
	switch {
	case errors.Is(err, ErrRequiredField), errors.Is(err, ErrInvalidField):
		return CodeValidation
	case errors.Is(err, ErrBusinessRule):
		return CodeBusinessRule
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConcurrentModification):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// StatusHintOf returns the HTTP status hint for any error.
func StatusHintOf(err error) int {
	switch {
	case errors.Is(err, ErrRequiredField), errors.Is(err, ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, ErrBusinessRule):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Stack helpers
// ============================================================================

// CaptureStack captures the current call stack.
// skip: frames to skip (3 skips Callers, CaptureStack and the constructor)
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders at most 10 non-runtime frames.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// Stacker is implemented by errors that carry a stack.
type Stacker interface {
	Stack() []string
}

// ============================================================================
// Constructors
// ============================================================================

func newDomainError(kind error, entity, field, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Entity:  entity,
		Field:   field,
		Message: message,
		stack:   CaptureStack(4),
	}
}

// NewRequiredFieldError "<label>は必須です"
func NewRequiredFieldError(field, label string) error {
	return newDomainError(ErrRequiredField, "", field, label+"は必須です")
}

// NewInvalidFieldError a value broke a format/range/length rule.
func NewInvalidFieldError(field, message string) error {
	return newDomainError(ErrInvalidField, "", field, message)
}

// NewBusinessRuleError a cross-field or cross-entity invariant was violated.
func NewBusinessRuleError(entity, message string) error {
	return newDomainError(ErrBusinessRule, entity, "", message)
}

// NewDuplicateError a uniqueness rule was violated.
func NewDuplicateError(entity, message string) error {
	return newDomainError(ErrDuplicate, entity, "", message)
}

// NewOperationNotAllowedError the entity's state does not allow the operation.
func NewOperationNotAllowedError(entity, message string) error {
	return newDomainError(ErrOperationNotAllowed, entity, "", message)
}

// NewNotFoundError the entity does not exist (or belongs to somebody else).
func NewNotFoundError(entity, id string) error {
	message := entity + " not found"
	if id != "" {
		message += ": " + id
	}
	return newDomainError(ErrNotFound, entity, "", message)
}

// NewConcurrentModificationError the aggregate was changed by another transaction.
func NewConcurrentModificationError(entity, id string) error {
	return newDomainError(ErrConcurrentModification, entity, "",
		entity+" "+id+" was modified by another transaction, please retry")
}
