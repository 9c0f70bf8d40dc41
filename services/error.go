package services

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error codes returned to API clients.
const (
	CodeValidation               = "VALIDATION_ERROR"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeConflict                 = "CONFLICT"
	CodeInternal                 = "INTERNAL_ERROR"
	CodeFlashcardNotFound        = "FLASHCARD_NOT_FOUND"
	CodeFlashcardForbidden       = "FLASHCARD_FORBIDDEN"
	CodeFlashcardOperationFailed = "FLASHCARD_OPERATION_FAILED"
	CodeGenerationNotFound       = "GENERATION_NOT_FOUND"
	CodeGenerationSaveFailed     = "GENERATION_SAVE_FAILED"
	CodeAIAuthentication         = "AI_AUTHENTICATION_ERROR"
	CodeAIRateLimit              = "AI_RATE_LIMIT_ERROR"
	CodeAINetwork                = "AI_NETWORK_ERROR"
	CodeAIServer                 = "AI_SERVER_ERROR"
	CodeAIResponseFormat         = "AI_RESPONSE_FORMAT_ERROR"
	CodeAIInvalidRequest         = "AI_INVALID_REQUEST_ERROR"
)

// ServiceError carries the client-facing message, code and HTTP status of a failure.
// Err keeps the underlying cause for logging and errors.Is.
type ServiceError struct {
	Err        error
	Msg        string
	Code       string
	StatusCode int
	Details    any
	StackTrace string
	Env        map[string]string
}

func NewServiceError(err error, statusCode int, code string, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		Code:       code,
		StatusCode: statusCode,
		StackTrace: string(debug.Stack()),
		Env:        make(map[string]string),
	}
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validationError(details []FieldError, msg string, args ...any) *ServiceError {
	se := NewServiceError(nil, http.StatusBadRequest, CodeValidation, msg, args...)
	if len(details) > 0 {
		se.Details = details
	}
	return se
}

func unauthorizedError(msg string, args ...any) *ServiceError {
	return NewServiceError(nil, http.StatusUnauthorized, CodeUnauthorized, msg, args...)
}
