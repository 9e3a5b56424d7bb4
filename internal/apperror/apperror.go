// Package apperror defines the error taxonomy shared by every layer.
//
// Services return *AppError values that wrap one of the sentinel errors below.
// Handlers never inspect messages; they map the sentinel (via errors.Is) to an
// HTTP status and send Code + Message to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpstream        = errors.New("upstream provider error")
	ErrUnavailable     = errors.New("service unavailable")
)

// Machine-readable codes sent in the "error" field of responses.
const (
	CodeNotFound               = "not_found"
	CodeValidation             = "validation_error"
	CodeConflict               = "conflict"
	CodeForbidden              = "forbidden"
	CodeUnauthenticated        = "unauthenticated"
	CodeDuplicateEmail         = "duplicate_email"
	CodeInvalidCredentials     = "invalid_credentials"
	CodeInvalidExternalSession = "invalid_external_session"
	CodeAlreadyMember          = "already_member"
	CodeAlreadyJoined          = "already_joined"
	CodeEventFull              = "event_full"
	CodeProviderNotFound       = "provider_not_found"
	CodeProviderError          = "provider_error"
	CodeNoLinkedAccounts       = "no_linked_accounts"
	CodeUnavailable            = "unavailable"
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Code    string // machine-readable kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-supplied message, for lookups
// that are not keyed by id (email, membership pair, attendance pair).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// Unauthenticated is returned for missing, unknown or expired sessions.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeDuplicateEmail,
		Message: "Email already registered",
		Field:   "email",
	}
}

// InvalidCredentials deliberately carries one message for every cause
// (unknown email, password-less account, wrong password).
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

func InvalidExternalSession() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    CodeInvalidExternalSession,
		Message: "Invalid session_id",
	}
}

func AlreadyMember() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeAlreadyMember,
		Message: "User is already a member",
	}
}

func AlreadyJoined() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeAlreadyJoined,
		Message: "Already joined this event",
	}
}

func EventFull() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeEventFull,
		Message: "Event is full",
	}
}

// ProviderNotFound means the upstream rating provider has no such username.
// It unwraps to ErrNotFound so it surfaces as 404.
func ProviderNotFound(platform, username string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeProviderNotFound,
		Message: fmt.Sprintf("%s user %s not found", platform, username),
	}
}

func ProviderError(platform string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrUpstream, cause),
		Code:    CodeProviderError,
		Message: fmt.Sprintf("error contacting %s", platform),
	}
}

func NoLinkedAccounts() *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeNoLinkedAccounts,
		Message: "No chess accounts linked",
	}
}

// Unavailable reports a dependency of this service (the store) being down.
func Unavailable(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrUnavailable, cause),
		Code:    CodeUnavailable,
		Message: "service unavailable",
	}
}
