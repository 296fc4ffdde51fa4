package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Caller errors
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// Infrastructure errors
	ErrStorageUnavailable  ErrorCode = "STORAGE_UNAVAILABLE"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"

	// ErrResponseMalformed is absorbed by the response repairer and never reaches a caller.
	ErrResponseMalformed ErrorCode = "RESPONSE_MALFORMED"

	ErrInternal ErrorCode = "INTERNAL_ERROR"
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

// Helper functions for common errors
func NewInvalidArgumentError(message string) *DomainError {
	return NewError(ErrInvalidArgument, message, nil)
}

func NewStorageUnavailableError(message string, err error) *DomainError {
	return NewError(ErrStorageUnavailable, message, err)
}

func NewProviderUnavailableError(message string, err error) *DomainError {
	return NewError(ErrProviderUnavailable, message, err)
}

func NewResponseMalformedError(message string, err error) *DomainError {
	return NewError(ErrResponseMalformed, message, err)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
