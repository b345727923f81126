package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing rows and rows outside the caller's account,
	// including soft-deleted reports.
	ErrNotFound = errors.New("not found")

	// ErrAggregation marks ledger data that cannot be summarized, such as an
	// expense pointing at a category outside the taxonomy.
	ErrAggregation = errors.New("aggregation failed")
)

// ValidationError is a malformed request. Its message is safe to show to callers.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundf wraps ErrNotFound with a description of what was missing.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
