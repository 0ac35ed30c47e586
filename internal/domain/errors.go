package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"

	// Generation pipeline errors
	ErrLLMServiceError       ErrorCode = "LLM_SERVICE_ERROR"
	ErrGenerationFailed      ErrorCode = "GENERATION_FAILED"
	ErrPersistenceFailed     ErrorCode = "PERSISTENCE_FAILED"
	ErrExerciseNotGenerating ErrorCode = "EXERCISE_NOT_GENERATING"
	ErrRetrievalFailed       ErrorCode = "RETRIEVAL_FAILED"

	// Submission errors
	ErrExerciseNotReady ErrorCode = "EXERCISE_NOT_READY"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrNotGenerating is the sentinel matched by errors.Is when a status write
// finds the exercise missing or already terminal.
var ErrNotGenerating = &DomainError{Code: ErrExerciseNotGenerating}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewExerciseNotFoundError(exerciseID string) *DomainError {
	return NewError(ErrNotFound, fmt.Sprintf("Exercise not found with ID: %s", exerciseID), nil)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(ErrLLMServiceError, "Failed to process with LLM service", err)
}

func NewGenerationError(err error) *DomainError {
	return NewError(ErrGenerationFailed, "Generation stream failed", err)
}

func NewPersistenceError(exerciseID string, err error) *DomainError {
	return NewError(ErrPersistenceFailed, fmt.Sprintf("Failed to persist exercise %s", exerciseID), err)
}

func NewNotGeneratingError(exerciseID string) *DomainError {
	return NewError(ErrExerciseNotGenerating, fmt.Sprintf("Exercise %s is not generating", exerciseID), nil)
}

func NewRetrievalError(err error) *DomainError {
	return NewError(ErrRetrievalFailed, "Knowledge base retrieval failed", err)
}

func NewExerciseNotReadyError(exerciseID string, status ExerciseStatus) *DomainError {
	return NewError(ErrExerciseNotReady, fmt.Sprintf("Exercise %s cannot be submitted while %s", exerciseID, status.APIStatus()), nil)
}
