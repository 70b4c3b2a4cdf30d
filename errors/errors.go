package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrInvalidInput indicates invalid user input (bad data URI, malformed CSV)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotEnoughData indicates a table too narrow to chart
	ErrNotEnoughData = errors.New("not enough data")

	// ErrMissingCredential indicates the remote model API key is not configured
	ErrMissingCredential = errors.New("missing api credential")

	// ErrLLMCommunication indicates LLM communication failed
	ErrLLMCommunication = errors.New("llm communication failed")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotEnoughData checks if error is an insufficient data error
func IsNotEnoughData(err error) bool {
	return errors.Is(err, ErrNotEnoughData)
}

// IsMissingCredential checks if error comes from an unconfigured API key
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}
