package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Ingestion errors. Per-item: callers skip the item and continue the batch.
var (
	ErrInvalidURL      = NewDomainError(ErrCodeValidation, "source link is not a parseable URL")
	ErrExtractionEmpty = NewDomainError(ErrCodeValidation, "extracted text is empty")
	ErrTextTooShort    = NewDomainError(ErrCodeValidation, "normalized text is below the noise-length floor")
)

// Indexing errors. The mismatch is fatal for the current document only; the
// run continues with the next document.
var (
	ErrEmbeddingCountMismatch = NewDomainError(ErrCodeInternalError, "embedding count does not match chunk count")
)

// Infrastructure errors, propagated as typed failures to the caller of the
// enclosing operation.
var (
	ErrVectorIndexUnavailable = NewDomainError(ErrCodeUnavailable, "vector index unavailable")
	ErrEmbeddingService       = NewDomainError(ErrCodeUnavailable, "embedding service error")
	ErrGenerationService      = NewDomainError(ErrCodeUnavailable, "generation service error")
)

var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)
