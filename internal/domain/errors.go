package domain

import "fmt"

// DomainError carries a pipeline error category alongside the underlying cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

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
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Error categories. Extraction and persistence errors leave the file
// unprocessed and eligible for retry; generation errors are recovered locally
// and never abort a file; artifact errors on deletion are tolerated.
const (
	ErrCodeExtraction  = "EXTRACTION_ERROR"
	ErrCodeGeneration  = "GENERATION_ERROR"
	ErrCodePersistence = "PERSISTENCE_ERROR"
	ErrCodeArtifact    = "ARTIFACT_ERROR"
	ErrCodeValidation  = "VALIDATION_ERROR"
)

var (
	ErrUnreadablePDF    = NewDomainError(ErrCodeExtraction, "pdf is structurally unreadable")
	ErrEmptyDocument    = NewDomainError(ErrCodeExtraction, "no text extracted from pdf")
	ErrEmptyChunk       = NewDomainError(ErrCodeValidation, "chunk content is empty")
	ErrMalformedQAReply = NewDomainError(ErrCodeGeneration, "model reply is not the expected JSON object")
)
