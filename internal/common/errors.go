package common

import (
	"errors"
	"fmt"
	"net/http"
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
	// ErrDocumentFormat marks input that is not a readable PDF.
	ErrDocumentFormat = errors.New("invalid document format")
	// ErrExtraction marks collaborator failure after all retries were spent.
	ErrExtraction = errors.New("extraction failed")
	// ErrNoValidRecords marks a document from which no record survived validation.
	ErrNoValidRecords = errors.New("no valid records")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
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

// HTTPStatus maps the error taxonomy to response status codes.
// Document problems are the client's fault; collaborator problems are ours.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrDocumentFormat), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoValidRecords):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
