package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies why an authorization decision failed.
type Code string

const (
	// CodeAuthenticationRequired means no or invalid credential;
	// recoverable by re-authenticating.
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	// CodeAuthorizationDenied means a valid identity lacks the required
	// permission.
	CodeAuthorizationDenied Code = "AUTHORIZATION_DENIED"
	// CodeAuthorizationUnavailable means a dependency failed; the
	// decision fails closed and the caller may retry.
	CodeAuthorizationUnavailable Code = "AUTHORIZATION_UNAVAILABLE"
	// CodeConfigurationError means the process cannot authenticate
	// anyone, e.g. a missing signing secret.
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
)

// Error is the only error type the engine lets escape to callers. The
// Missing list names the permissions that caused a denial; it is for
// server-side logs, never for client responses.
type Error struct {
	Code    Code
	Missing []string
	cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("authz: ")
	b.WriteString(string(e.Code))
	if len(e.Missing) > 0 {
		b.WriteString(" missing=")
		b.WriteString(strings.Join(e.Missing, ","))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// ErrDenied builds a permission denial carrying the missing permissions.
func ErrDenied(missing ...string) *Error {
	return &Error{Code: CodeAuthorizationDenied, Missing: missing}
}

// ErrUnavailable wraps a dependency failure.
func ErrUnavailable(cause error) *Error {
	return &Error{Code: CodeAuthorizationUnavailable, cause: cause}
}

// ErrAuthenticationRequired wraps a credential failure.
func ErrAuthenticationRequired(cause error) *Error {
	return &Error{Code: CodeAuthenticationRequired, cause: cause}
}

// ErrConfiguration wraps a startup configuration failure.
func ErrConfiguration(cause error) *Error {
	return &Error{Code: CodeConfigurationError, cause: cause}
}

// CodeOf extracts the authz code from an error chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
