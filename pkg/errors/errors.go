package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrClientNotFound       = errors.New("client not found")
	ErrValidation           = errors.New("client data validation error")
	ErrInvalidFollowUpDate  = errors.New("invalid follow-up date")
	ErrStorage              = errors.New("storage operation failed")
	ErrReminderReconcile    = errors.New("reminder reconciliation failed")
	ErrNotificationPlatform = errors.New("notification platform error")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeClientNotFound      = "CLIENT_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidFollowUpDate = "INVALID_FOLLOW_UP_DATE"
	ErrCodeStorageError        = "STORAGE_ERROR"
	ErrCodeReminderError       = "REMINDER_ERROR"
)

func WrapClientNotFound(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %s not found", clientID),
		ErrClientNotFound,
	)
}

// WrapValidation carries the per-field messages of a rejected request.
func WrapValidation(fields map[string]string) *ValidationError {
	return &ValidationError{
		BusinessError: NewBusinessError(ErrCodeValidationFailed, "Input validation failed", ErrValidation),
		Fields:        fields,
	}
}

func WrapInvalidFollowUpDate(input string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidFollowUpDate,
		fmt.Sprintf("Follow-up date %q must be YYYY-MM-DD or RFC 3339", input),
		ErrInvalidFollowUpDate,
	)
}

func WrapStorageError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStorageError,
		"storage operation failed",
		fmt.Errorf("%w: %w", ErrStorage, err),
	)
}

func WrapReminderError(clientID string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReminderError,
		fmt.Sprintf("Reminder for client %s could not be reconciled", clientID),
		fmt.Errorf("%w: %w", ErrReminderReconcile, err),
	)
}

// ValidationError is a BusinessError with field-level detail.
type ValidationError struct {
	*BusinessError
	Fields map[string]string
}

func (e *ValidationError) Unwrap() error {
	return e.BusinessError
}

// Code extracts the business code from err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
