package client

import (
	"errors"
	"fmt"
)

// AuthenticationError means the login endpoint refused the credentials or returned no usable token
type AuthenticationError struct {
	StatusCode int // 0 when no response was received
	InnerError error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed with status %d: %v", e.StatusCode, e.InnerError)
	}
	return fmt.Sprintf("authentication failed: %v", e.InnerError)
}

func (e *AuthenticationError) Unwrap() error {
	return e.InnerError
}

// UploadError means the image upload failed in transport or returned a non-2xx status
type UploadError struct {
	FilePath   string
	StatusCode int // 0 when no response was received
	InnerError error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload of %s failed with status %d: %v", e.FilePath, e.StatusCode, e.InnerError)
	}
	return fmt.Sprintf("upload of %s failed: %v", e.FilePath, e.InnerError)
}

func (e *UploadError) Unwrap() error {
	return e.InnerError
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(statusCode int, inner error) error {
	return &AuthenticationError{StatusCode: statusCode, InnerError: inner}
}

// NewUploadError creates a new UploadError
func NewUploadError(filePath string, statusCode int, inner error) error {
	return &UploadError{FilePath: filePath, StatusCode: statusCode, InnerError: inner}
}

// IsAuthenticationError checks if the error is, or wraps, an AuthenticationError
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsUploadError checks if the error is, or wraps, an UploadError
func IsUploadError(err error) bool {
	var uploadErr *UploadError
	return errors.As(err, &uploadErr)
}
