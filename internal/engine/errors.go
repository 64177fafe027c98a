package engine

import (
	"errors"

	"github.com/roach88/attune/internal/domain"
)

// ErrorKind categorizes engine errors for the HTTP and CLI surfaces.
type ErrorKind string

const (
	// KindValidation indicates malformed caller input.
	KindValidation ErrorKind = "VALIDATION"

	// KindNotFound indicates an unknown profile or outcome id.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindInsufficientData indicates a caller asked for personalization
	// results that have too few outcomes behind them.
	KindInsufficientData ErrorKind = "INSUFFICIENT_DATA"

	// KindInternal covers storage and cache failures.
	KindInternal ErrorKind = "INTERNAL"
)

// KindOf classifies err. Uses errors.As and errors.Is so wrapped errors
// classify like their cause.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case domain.IsValidationError(err):
		return KindValidation
	case domain.IsNotFound(err):
		return KindNotFound
	case domain.IsInsufficientData(err):
		return KindInsufficientData
	default:
		return KindInternal
	}
}

// Field returns the offending field of a validation error, if any.
func Field(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
