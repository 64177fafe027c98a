package domain

import (
	"errors"
	"fmt"
)

// Sentinel lookup errors returned by repositories.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrOutcomeNotFound = errors.New("outcome not found")
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed caller input.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeInsufficientData indicates personalization has too few outcomes
	// to report a numeric accuracy.
	ErrCodeInsufficientData ErrorCode = "INSUFFICIENT_DATA"
)

// ValidationError reports malformed explicit input. It is always surfaced to
// the caller, never silently dropped.
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    ErrCodeValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InsufficientDataError is the error form of the "not enough data" state.
// Most callers should check PersonalizationProfile.Insufficient instead.
type InsufficientDataError struct {
	Code      ErrorCode
	ProfileID string
	Have      int
	Need      int
}

// NewInsufficientDataError creates an InsufficientDataError.
func NewInsufficientDataError(profileID string, have int) *InsufficientDataError {
	return &InsufficientDataError{
		Code:      ErrCodeInsufficientData,
		ProfileID: profileID,
		Have:      have,
		Need:      MinFactorSamples,
	}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d of %d outcomes needed (profile=%s)", e.Code, e.Have, e.Need, e.ProfileID)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInsufficientData returns true if err is or wraps an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}

// IsNotFound reports whether err is one of the lookup sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrOutcomeNotFound)
}
