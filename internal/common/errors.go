package common

import (
	"errors"
	"fmt"
)

// Error codes for the processing pipeline. Per-document codes (DECODE, OCR,
// EXTRACTION, EXTRACTION_PARSE) abort only the document they occurred on;
// PRECONDITION blocks the whole batch before any work starts.
const (
	CodePrecondition    = "PRECONDITION"
	CodeDecode          = "DECODE"
	CodeOCR             = "OCR"
	CodeExtraction      = "EXTRACTION"
	CodeExtractionParse = "EXTRACTION_PARSE"
	CodeExport          = "EXPORT"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrEmptyBatch        = errors.New("empty file batch")
	ErrInvalidInput      = errors.New("invalid input")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the AppError code carried by err, or "" if err is not an
// AppError.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
