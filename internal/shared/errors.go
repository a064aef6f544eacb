package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated indicates no principal is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the principal lacks the admin role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique-constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// CredentialFailure carries the internal reason a login was rejected.
// Every failure matches ErrInvalidCredentials under errors.Is, so the
// HTTP layer returns one uniform response while the audit trail keeps
// the distinction.
type CredentialFailure struct {
	Reason string
}

func (e *CredentialFailure) Error() string {
	return "invalid credentials: " + e.Reason
}

// Is reports the uniform caller-visible identity of all credential failures.
func (e *CredentialFailure) Is(target error) bool {
	return target == ErrInvalidCredentials
}

var (
	// ErrUnknownEmail rejects logins for addresses with no account.
	ErrUnknownEmail = &CredentialFailure{Reason: "unknown email"}
	// ErrAccountInactive rejects logins for deactivated accounts,
	// before the password is ever compared.
	ErrAccountInactive = &CredentialFailure{Reason: "account inactive"}
	// ErrBadPassword rejects logins whose hash comparison failed.
	ErrBadPassword = &CredentialFailure{Reason: "bad password"}
)

// CredentialReason extracts the audit reason from a login error.
func CredentialReason(err error) string {
	var failure *CredentialFailure
	if errors.As(err, &failure) {
		return failure.Reason
	}
	return ""
}

// ValidationError reports malformed or missing input, detected before
// any store access.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// OperationError wraps an opaque store-level failure. The underlying
// error is retained for logging, never for display.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return e.Op + ": operation failed: " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Operationf wraps err unless it already belongs to the taxonomy; taxonomy
// errors propagate untouched so the HTTP mapping stays precise.
func Operationf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var validation *ValidationError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthenticated) ||
		errors.As(err, &validation) {
		return err
	}
	return &OperationError{Op: fmt.Sprintf(format, args...), Err: err}
}
