package camera

import (
	"errors"
	"fmt"
)

// CaptureError means the camera could not produce image data (device busy or absent, I/O failure).
type CaptureError struct {
	Device     string
	InnerError error
}

func (e *CaptureError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("capture failed on device %s: %v", e.Device, e.InnerError)
	}
	return fmt.Sprintf("capture failed: %v", e.InnerError)
}

func (e *CaptureError) Unwrap() error {
	return e.InnerError
}

// NewCaptureError creates a new CaptureError
func NewCaptureError(device string, inner error) error {
	return &CaptureError{Device: device, InnerError: inner}
}

// IsCaptureError checks if the error is, or wraps, a CaptureError
func IsCaptureError(err error) bool {
	var captureErr *CaptureError
	return errors.As(err, &captureErr)
}
