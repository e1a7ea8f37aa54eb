package ocr

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS environment variables are configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrRecognitionFailed is returned when the OCR backend fails to process a page.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrUnknownEngine is returned when an unrecognized engine name is requested.
	ErrUnknownEngine = errors.New("unknown OCR engine")
)

// RecognizerError wraps errors with additional context about the recognition failure.
type RecognizerError struct {
	// Op is the operation that failed (e.g., "Recognize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RecognizerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RecognizerError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RecognizerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRecognizerError wraps an error as a RecognizerError if it isn't already one.
func WrapRecognizerError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var rerr *RecognizerError
	if errors.As(err, &rerr) {
		return err // Already wrapped
	}

	return &RecognizerError{Op: op, Err: err, Details: details}
}
