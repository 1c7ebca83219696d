package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing credentials",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrAlertNotFound = &AppError{
		Code:       "ALERT_NOT_FOUND",
		Message:    "Alert not found",
		StatusCode: 404,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrChangeNotFound = &AppError{
		Code:       "CHANGE_NOT_FOUND",
		Message:    "Change record not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidFrequency = &AppError{
		Code:       "INVALID_FREQUENCY",
		Message:    "Check frequency must be a positive number of minutes",
		StatusCode: 400,
	}

	ErrInvalidEmail = &AppError{
		Code:       "INVALID_EMAIL",
		Message:    "Invalid email address",
		StatusCode: 400,
	}

	ErrMissingTarget = &AppError{
		Code:       "MISSING_TARGET",
		Message:    "URL and CSS selector are required",
		StatusCode: 400,
	}

	ErrKernelKeyMissing = &AppError{
		Code:       "KERNEL_KEY_MISSING",
		Message:    "Kernel API key required. Add your API key in settings to enable monitoring",
		StatusCode: 422,
	}

	ErrGmailNotConnected = &AppError{
		Code:       "GMAIL_NOT_CONNECTED",
		Message:    "Gmail is not connected for this user",
		StatusCode: 409,
	}
)
