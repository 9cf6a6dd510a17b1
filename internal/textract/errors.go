package textract

import (
	"errors"
	"fmt"
)

// Common text acquisition errors
var (
	// ErrInvalidPDF is returned when the provided data is not a valid PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrEmptyDocument is returned when the document contains no readable text.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrTooLarge is returned when the document exceeds a provider's size limit.
	ErrTooLarge = errors.New("document exceeds the maximum size limit")

	// ErrTooManyPages is returned when the document exceeds a provider's page limit.
	ErrTooManyPages = errors.New("document has too many pages for synchronous processing")

	// ErrOCRFailed is returned when the OCR engine fails to process the document.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when the Vision provider finds no
	// Google Cloud credentials in the environment.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
)

// Error wraps acquisition failures with the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g. "ExtractText").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("textract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("textract: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return errors.Is(e.Err, target) }

// WrapError wraps err as a textract Error unless it already is one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Op: op, Err: err, Details: details}
}
