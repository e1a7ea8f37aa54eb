package gemini

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the model call.
var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("missing Gemini API key: set GEMINI_API_KEY environment variable")

	// ErrInvalidResponse is returned when transport succeeded but the HTTP
	// status was outside 200-299 or the body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from Gemini API")

	// ErrEmptyOutput is returned when the response decoded but contained no
	// usable text.
	ErrEmptyOutput = errors.New("Gemini response contained no output text")
)

// ClientError wraps errors with additional context about the model call failure.
type ClientError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("gemini: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("gemini: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ClientError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapClientError wraps an error as a ClientError if it isn't already one.
func WrapClientError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var cerr *ClientError
	if errors.As(err, &cerr) {
		return err // Already wrapped
	}

	return &ClientError{Op: op, Err: err, Details: details}
}
