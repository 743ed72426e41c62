package motiondetection

import (
	"context"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/logging"
)

type MotionDetector interface {
	// Detect samples a new frame, compares it with the previous one
	// and returns true if motion is detected, false otherwise.
	Detect(ctx context.Context) (bool, error)
	// SetDaytime switches the capture profile used from the next sample on.
	SetDaytime(isDaytime bool)
}

// Comparison is the outcome of comparing two frames.
type Comparison struct {
	ChangedPixels int  // Changed pixels counted before the scan stopped
	ScannedPixels int  // Pixels visited
	Motion        bool // ChangedPixels exceeded MaxPixelChanges
}

// CompareFrames counts the pixels whose selected channel moved by more than PixelThreshold.
// Unless ExhaustiveScan is set, the scan stops as soon as the count exceeds MaxPixelChanges.
// Both frames must cover the detection resolution.
func CompareFrames(previous, current *camera.PixelBuffer, settings DetectionSettings) Comparison {
	var result Comparison
	channel := settings.Channel

	for x := 0; x < settings.Resolution.Width; x++ {
		for y := 0; y < settings.Resolution.Height; y++ {
			result.ScannedPixels++

			// int conversion keeps the subtraction from wrapping around
			delta := int(previous.At(x, y, channel)) - int(current.At(x, y, channel))
			if delta < 0 {
				delta = -delta
			}
			if delta <= settings.PixelThreshold {
				continue
			}

			result.ChangedPixels++
			if result.ChangedPixels > settings.MaxPixelChanges {
				result.Motion = true
				if !settings.ExhaustiveScan {
					return result
				}
			}
		}
	}

	return result
}

// Engine detects motion by comparing each new low resolution sample with the one before it.
// It is not safe for concurrent use.
type Engine struct {
	sampler   camera.FrameSampler
	settings  DetectionSettings
	isDaytime bool
	lastFrame *camera.PixelBuffer
	logger    logging.Logger
}

// NewEngine validates the settings and samples the first reference frame.
// This blocks for the sampler's warm-up, and for the night settle time when isDaytime is false.
func NewEngine(ctx context.Context, sampler camera.FrameSampler, settings DetectionSettings, isDaytime bool, logger logging.Logger) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		sampler:   sampler,
		settings:  settings,
		isDaytime: isDaytime,
		logger:    logging.OrNop(logger),
	}

	frame, err := e.sample(ctx)
	if err != nil {
		return nil, err
	}
	e.lastFrame = frame

	return e, nil
}

func (e *Engine) SetDaytime(isDaytime bool) {
	if e.isDaytime != isDaytime {
		e.logger.Info("Switching capture profile", "daytime", isDaytime)
	}
	e.isDaytime = isDaytime
}

// LastFrame returns the current reference frame.
func (e *Engine) LastFrame() *camera.PixelBuffer {
	return e.lastFrame
}

// Detect samples a frame and compares it with the reference frame. The new frame
// becomes the reference whatever the verdict. If sampling fails the reference is kept
// and the call can simply be repeated.
func (e *Engine) Detect(ctx context.Context) (bool, error) {
	frame, err := e.sample(ctx)
	if err != nil {
		return false, err
	}

	result := CompareFrames(e.lastFrame, frame, e.settings)
	e.lastFrame = frame

	e.logger.Debug("Frame compared",
		"changed", result.ChangedPixels,
		"scanned", result.ScannedPixels,
		"motion", result.Motion,
		"daytime", e.isDaytime)

	return result.Motion, nil
}

func (e *Engine) sample(ctx context.Context) (*camera.PixelBuffer, error) {
	frame, err := e.sampler.Sample(ctx, e.settings.SampleOptions(e.isDaytime))
	if err != nil {
		if ctx.Err() != nil || camera.IsCaptureError(err) {
			return nil, err
		}
		return nil, camera.NewCaptureError("", err)
	}

	res := e.settings.Resolution
	if err := frame.Validate(res.Width, res.Height, e.settings.Channel); err != nil {
		return nil, camera.NewCaptureError("", err)
	}

	return frame, nil
}
