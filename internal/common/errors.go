package common

import (
	"errors"
	"fmt"
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
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// Extraction failure modes; fatal for the document they occur on.
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrFileNotFound      = errors.New("file not found")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError builds the AppError used for content-extraction failures.
// cause should be one of ErrUnsupportedFormat, ErrCorruptFile or
// ErrFileNotFound so callers can test with errors.Is.
func ExtractionError(message string, cause error) *AppError {
	code := "EXTRACTION_ERROR"
	switch {
	case errors.Is(cause, ErrUnsupportedFormat):
		code = "UNSUPPORTED_FORMAT"
	case errors.Is(cause, ErrCorruptFile):
		code = "CORRUPT_FILE"
	case errors.Is(cause, ErrFileNotFound):
		code = "FILE_NOT_FOUND"
	}
	return NewAppError(code, message, cause)
}
