package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or incomplete input rejected before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a store or broker that cannot be reached.
	ErrUnavailable = errors.New("dependency unavailable")
	// ErrUnauthorized marks missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotEligible is returned when a certificate is requested below the threshold.
	ErrNotEligible = errors.New("certificate not available - score below 90%")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("question %w", ErrNotFound)
	ErrSubmissionNotFound  = fmt.Errorf("submission %w", ErrNotFound)
	ErrCertificateNotFound = fmt.Errorf("certificate %w", ErrNotFound)
	ErrAdminNotFound       = fmt.Errorf("admin %w", ErrNotFound)

	ErrEmailTaken           = fmt.Errorf("user with this email already exists: %w", ErrConflict)
	ErrCertificateIDTaken   = fmt.Errorf("certificate id already issued: %w", ErrConflict)
	ErrCertificateExhausted = errors.New("could not issue a unique certificate id")

	ErrQuestionSetUnavailable = fmt.Errorf("question set %w", ErrUnavailable)
	ErrAttemptExpired         = &ValidationError{Field: "attemptId", Message: "quiz attempt is unknown or expired"}
	ErrInvalidCredentials     = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DependencyError wraps a driver or network failure with the operation that hit it.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnavailable) match any DependencyError.
func (e *DependencyError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps err as a DependencyError. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Op: op, Err: err}
}
