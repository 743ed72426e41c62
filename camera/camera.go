package camera

import (
	"context"
	"time"
)

// SampleOptions are the capture parameters for one low resolution sample.
type SampleOptions struct {
	Width  int
	Height int

	AutoExposure     bool
	AutoWhiteBalance bool

	// Zero values leave the driver default in place.
	FrameRate    float64
	ShutterSpeed time.Duration
	ISO          int

	// Settle is an extra wait after the parameters are applied, before the frame is read.
	Settle time.Duration
}

// FrameSampler produces a fresh RGB frame on demand.
// Implementations own the camera only for the duration of one call and release it on every path.
type FrameSampler interface {
	Sample(ctx context.Context, opts SampleOptions) (*PixelBuffer, error)
}

// StillCamera takes a full resolution photo and writes it to disk.
type StillCamera interface {
	// Shoot writes a photo to filePath, or to the configured default path when filePath is empty.
	// It returns the path that was written.
	Shoot(ctx context.Context, filePath string) (string, error)
}
