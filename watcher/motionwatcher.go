package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/client"
	"github.com/yeti47/snapwatch/daylight"
	filemanagement "github.com/yeti47/snapwatch/file-management"
	"github.com/yeti47/snapwatch/logging"
	motiondetection "github.com/yeti47/snapwatch/motion-detection"
	postprocessing "github.com/yeti47/snapwatch/post-processing"
)

// WatcherOptions holds the plain settings of a MotionWatcher
type WatcherOptions struct {
	CapturePath  string        // Where the still camera writes each capture
	KeepCaptures bool          // Keep stills on disk after a successful upload
	RetryDelay   time.Duration // Pause after a failed cycle
}

// DetectorFactory builds the motion detector. Construction samples the first
// reference frame, so it can fail while the camera is busy or still booting.
type DetectorFactory func(ctx context.Context, isDaytime bool) (motiondetection.MotionDetector, error)

// MotionWatcher orchestrates motion detection, still capture, processing, and uploading
type MotionWatcher struct {
	// Core components
	newDetector    DetectorFactory
	motionDetector motiondetection.MotionDetector // nil until newDetector succeeds
	stillCamera    camera.StillCamera
	postProcessor  postprocessing.PostProcessor
	imageStore     client.ImageStoreClient
	fileTracker    filemanagement.FileTracker
	schedule       daylight.Schedule
	logger         logging.Logger

	options WatcherOptions
	now     func() time.Time

	// State management
	isRunning bool
	mu        sync.Mutex
}

// NewMotionWatcher creates a new watcher with injected dependencies.
// The detector is built on the first cycle and rebuilt on later cycles until that succeeds.
func NewMotionWatcher(
	newDetector DetectorFactory,
	stillCamera camera.StillCamera,
	postProcessor postprocessing.PostProcessor,
	imageStore client.ImageStoreClient,
	fileTracker filemanagement.FileTracker,
	schedule daylight.Schedule,
	options WatcherOptions,
	logger logging.Logger,
) *MotionWatcher {
	return &MotionWatcher{
		newDetector:    newDetector,
		stillCamera:    stillCamera,
		postProcessor:  postProcessor,
		imageStore:     imageStore,
		fileTracker:    fileTracker,
		schedule:       schedule,
		logger:         logging.OrNop(logger),
		options:        options,
		now:            time.Now,
	}
}

// Run repeats detection cycles until ctx is cancelled. A failed cycle is logged
// and followed by RetryDelay; it never stops the loop.
func (w *MotionWatcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("motion watcher is already running")
	}
	w.isRunning = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.isRunning = false
		w.mu.Unlock()
	}()

	if err := w.fileTracker.EnsureDirectory(w.options.CapturePath); err != nil {
		return fmt.Errorf("failed to prepare capture directory: %w", err)
	}
	if !w.options.KeepCaptures {
		defer w.fileTracker.Cleanup()
	}

	w.logger.Info("Motion watcher started", "capture_path", w.options.CapturePath)

	for {
		if ctx.Err() != nil {
			w.logger.Info("Motion watcher stopped")
			return nil
		}

		if _, err := w.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Motion watcher stopped")
				return nil
			}
			w.logCycleError(err)
			if !wait(ctx, w.options.RetryDelay) {
				w.logger.Info("Motion watcher stopped")
				return nil
			}
		}
	}
}

// IsRunning returns whether Run is currently active
func (w *MotionWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// RunCycle performs one detection and, on motion, captures and uploads a still.
// It reports whether a still was uploaded.
func (w *MotionWatcher) RunCycle(ctx context.Context) (bool, error) {
	isDaytime := w.schedule.IsDaytime(w.now())

	detector, err := w.detector(ctx, isDaytime)
	if err != nil {
		return false, err
	}
	detector.SetDaytime(isDaytime)

	motion, err := detector.Detect(ctx)
	if err != nil {
		return false, fmt.Errorf("motion detection failed: %w", err)
	}
	if !motion {
		return false, nil
	}

	eventID := uuid.New().String()
	w.logger.Info("Motion detected", "event", eventID)

	stillPath, err := w.stillCamera.Shoot(ctx, w.options.CapturePath)
	if err != nil {
		return false, fmt.Errorf("still capture failed for event %s: %w", eventID, err)
	}
	w.fileTracker.Track(stillPath)

	uploadPath, err := w.postProcessor.ProcessStill(stillPath)
	if err != nil {
		w.logger.Warn("Post-processing failed, uploading original still", "event", eventID, "error", err)
		uploadPath = stillPath
	}
	if uploadPath != stillPath {
		w.fileTracker.Track(uploadPath)
	}

	if err := w.imageStore.Upload(ctx, uploadPath); err != nil {
		return false, fmt.Errorf("upload failed for event %s: %w", eventID, err)
	}
	w.logger.Info("Still uploaded", "event", eventID, "path", uploadPath)

	if !w.options.KeepCaptures {
		w.fileTracker.DeleteFile(stillPath)
		if uploadPath != stillPath {
			w.fileTracker.DeleteFile(uploadPath)
		}
	}
	return true, nil
}

func (w *MotionWatcher) detector(ctx context.Context, isDaytime bool) (motiondetection.MotionDetector, error) {
	if w.motionDetector != nil {
		return w.motionDetector, nil
	}

	w.logger.Info("Sampling initial reference frame", "daytime", isDaytime)
	detector, err := w.newDetector(ctx, isDaytime)
	if err != nil {
		return nil, fmt.Errorf("failed to start motion detection: %w", err)
	}
	w.motionDetector = detector
	return detector, nil
}

func (w *MotionWatcher) logCycleError(err error) {
	switch {
	case camera.IsCaptureError(err):
		w.logger.Error("Camera capture failed", "error", err)
	case client.IsAuthenticationError(err):
		w.logger.Error("Authentication with image store failed", "error", err)
	case client.IsUploadError(err):
		w.logger.Error("Upload to image store failed", "error", err)
	case errors.Is(err, context.DeadlineExceeded):
		w.logger.Warn("Cycle timed out", "error", err)
	default:
		w.logger.Error("Cycle failed", "error", err)
	}
}

// wait blocks for d or until ctx is done, reporting whether the full delay elapsed
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
