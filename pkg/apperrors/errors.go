// Package apperrors defines the typed errors the quality server API surfaces.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeDatabase   ErrorType = "database"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// ValidationError creates a validation error
func ValidationError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeValidation,
		Code:       "VALIDATION_FAILED",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFoundError creates a not found error for a named resource
func NotFoundError(resource string) *APIError {
	return &APIError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// ConflictError creates a conflict error
func ConflictError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeConflict,
		Code:       "RESOURCE_CONFLICT",
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// InternalError creates an internal server error with cause
func InternalError(message string, cause error) *APIError {
	return &APIError{
		Type:        ErrorTypeInternal,
		Code:        "INTERNAL_ERROR",
		Message:     message,
		HTTPStatus:  http.StatusInternalServerError,
		InternalErr: cause,
	}
}

// DatabaseError creates a database error for a failed operation
func DatabaseError(operation string, cause error) *APIError {
	return &APIError{
		Type:        ErrorTypeDatabase,
		Code:        "DATABASE_ERROR",
		Message:     fmt.Sprintf("Database operation failed: %s", operation),
		HTTPStatus:  http.StatusInternalServerError,
		InternalErr: cause,
	}
}

// GetAPIError extracts an APIError from an error chain, or nil
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// FromGormError maps GORM errors onto API errors, naming the resource for 404s
func FromGormError(err error, resource string) *APIError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(resource)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ConflictError(fmt.Sprintf("%s already exists", resource))
	}
	return DatabaseError(resource, err)
}
