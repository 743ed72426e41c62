package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/client"
	"github.com/yeti47/snapwatch/daylight"
	filemanagement "github.com/yeti47/snapwatch/file-management"
	motiondetection "github.com/yeti47/snapwatch/motion-detection"
)

type fakeDetector struct {
	verdicts []bool
	errs     []error
	calls    int
	daytime  []bool
	// onExhausted runs once every queued verdict has been served
	onExhausted func()
}

func (d *fakeDetector) SetDaytime(isDaytime bool) {
	d.daytime = append(d.daytime, isDaytime)
}

func (d *fakeDetector) Detect(ctx context.Context) (bool, error) {
	i := d.calls
	d.calls++
	if i >= len(d.verdicts) {
		if d.onExhausted != nil {
			d.onExhausted()
		}
		return false, nil
	}
	var err error
	if i < len(d.errs) {
		err = d.errs[i]
	}
	return d.verdicts[i], err
}

type fakeStillCamera struct {
	shots []string
	err   error
}

func (c *fakeStillCamera) Shoot(ctx context.Context, filePath string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.shots = append(c.shots, filePath)
	return filePath, os.WriteFile(filePath, []byte("jpeg"), 0644)
}

type fakePostProcessor struct {
	suffix string
	err    error
}

func (p *fakePostProcessor) ProcessStill(filePath string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.suffix == "" {
		return filePath, nil
	}
	output := strings.TrimSuffix(filePath, ".jpg") + p.suffix + ".jpg"
	return output, os.WriteFile(output, []byte("processed"), 0644)
}

type fakeImageStore struct {
	uploads []string
	err     error
}

func (s *fakeImageStore) Authenticate(ctx context.Context) error {
	return nil
}

func (s *fakeImageStore) Upload(ctx context.Context, filePath string) error {
	if s.err != nil {
		return s.err
	}
	s.uploads = append(s.uploads, filePath)
	return nil
}

type watcherFixture struct {
	detector  *fakeDetector
	// startErrs are returned by the detector factory, in order, before it succeeds
	startErrs []error
	starts    []bool
	camera    *fakeStillCamera
	processor *fakePostProcessor
	store     *fakeImageStore
	path      string
	watcher   *MotionWatcher
}

func newWatcherFixture(t *testing.T, options WatcherOptions, verdicts ...bool) *watcherFixture {
	t.Helper()
	f := &watcherFixture{
		detector:  &fakeDetector{verdicts: verdicts},
		camera:    &fakeStillCamera{},
		processor: &fakePostProcessor{},
		store:     &fakeImageStore{},
		path:      filepath.Join(t.TempDir(), "captures", "capture.jpg"),
	}
	options.CapturePath = f.path
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		t.Fatal(err)
	}
	factory := func(ctx context.Context, isDaytime bool) (motiondetection.MotionDetector, error) {
		f.starts = append(f.starts, isDaytime)
		if len(f.starts) <= len(f.startErrs) {
			return nil, f.startErrs[len(f.starts)-1]
		}
		return f.detector, nil
	}
	f.watcher = NewMotionWatcher(factory, f.camera, f.processor, f.store,
		filemanagement.NewLocalFileTracker(nil), daylight.Fixed(true), options, nil)
	return f
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunCycle_NoMotion(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, false)

	uploaded, err := f.watcher.RunCycle(context.Background())
	if err != nil || uploaded {
		t.Fatalf("RunCycle = %v, %v; expected no upload", uploaded, err)
	}
	if len(f.camera.shots) != 0 || len(f.store.uploads) != 0 {
		t.Errorf("No capture or upload expected, got %d shots and %d uploads", len(f.camera.shots), len(f.store.uploads))
	}
}

func TestRunCycle_MotionCapturesAndUploads(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true)

	uploaded, err := f.watcher.RunCycle(context.Background())
	if err != nil || !uploaded {
		t.Fatalf("RunCycle = %v, %v; expected upload", uploaded, err)
	}
	if len(f.camera.shots) != 1 || f.camera.shots[0] != f.path {
		t.Errorf("Expected one shot at %s, got %v", f.path, f.camera.shots)
	}
	if len(f.store.uploads) != 1 || f.store.uploads[0] != f.path {
		t.Errorf("Expected upload of %s, got %v", f.path, f.store.uploads)
	}
	if fileExists(f.path) {
		t.Error("Uploaded still should be deleted")
	}
}

func TestRunCycle_KeepCaptures(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{KeepCaptures: true}, true)

	if _, err := f.watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !fileExists(f.path) {
		t.Error("Still should be kept on disk")
	}
}

func TestRunCycle_UploadsProcessedStill(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true)
	f.processor.suffix = "_processed"
	processed := strings.TrimSuffix(f.path, ".jpg") + "_processed.jpg"

	if _, err := f.watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(f.store.uploads) != 1 || f.store.uploads[0] != processed {
		t.Errorf("Expected upload of %s, got %v", processed, f.store.uploads)
	}
	if fileExists(f.path) || fileExists(processed) {
		t.Error("Both original and processed still should be deleted")
	}
}

func TestRunCycle_PostProcessingFailureUploadsOriginal(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true)
	f.processor.err = errors.New("ffmpeg missing")

	if _, err := f.watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(f.store.uploads) != 1 || f.store.uploads[0] != f.path {
		t.Errorf("Expected original still to be uploaded, got %v", f.store.uploads)
	}
}

func TestRunCycle_ErrorsPropagate(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true)
	f.store.err = client.NewAuthenticationError(403, errors.New("forbidden"))

	_, err := f.watcher.RunCycle(context.Background())
	if !client.IsAuthenticationError(err) {
		t.Errorf("Expected AuthenticationError, got %v", err)
	}
	if !fileExists(f.path) {
		t.Error("Still should stay on disk after a failed upload")
	}

	f = newWatcherFixture(t, WatcherOptions{}, true)
	f.camera.err = camera.NewCaptureError("0", errors.New("device busy"))
	if _, err := f.watcher.RunCycle(context.Background()); !camera.IsCaptureError(err) {
		t.Errorf("Expected CaptureError from still camera, got %v", err)
	}
	if len(f.store.uploads) != 0 {
		t.Error("No upload expected after failed capture")
	}

	f = newWatcherFixture(t, WatcherOptions{})
	f.detector.verdicts = []bool{false}
	f.detector.errs = []error{camera.NewCaptureError("0", errors.New("no frame"))}
	if _, err := f.watcher.RunCycle(context.Background()); !camera.IsCaptureError(err) {
		t.Errorf("Expected CaptureError from detection, got %v", err)
	}
	if len(f.camera.shots) != 0 {
		t.Error("No still expected after failed detection")
	}
}

func TestRunCycle_SetsDaytimeFromSchedule(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, false, false)
	f.watcher.schedule = daylight.Window{Start: 7 * time.Hour, End: 19 * time.Hour}

	f.watcher.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) }
	f.watcher.RunCycle(context.Background())
	f.watcher.now = func() time.Time { return time.Date(2024, 6, 1, 23, 0, 0, 0, time.Local) }
	f.watcher.RunCycle(context.Background())

	if len(f.detector.daytime) != 2 || !f.detector.daytime[0] || f.detector.daytime[1] {
		t.Errorf("Expected daytime [true false], got %v", f.detector.daytime)
	}
}

func TestRun_ContinuesAfterFailuresUntilCancelled(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{RetryDelay: time.Millisecond}, true, true, true)
	f.detector.errs = []error{nil, camera.NewCaptureError("0", errors.New("busy")), nil}
	f.camera.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.detector.onExhausted = cancel

	if err := f.watcher.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(f.store.uploads) != 2 {
		t.Errorf("Expected 2 uploads around the failed cycle, got %d", len(f.store.uploads))
	}
	if f.watcher.IsRunning() {
		t.Error("Watcher should not be running after Run returns")
	}
}

func TestRun_UploadFailureDoesNotStopLoop(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true, true)
	f.store.err = client.NewUploadError("capture.jpg", 500, errors.New("server error"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.detector.onExhausted = cancel

	if err := f.watcher.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.camera.shots) != 2 {
		t.Errorf("Expected 2 captures, got %d", len(f.camera.shots))
	}
	if fileExists(f.path) {
		t.Error("Leftover still should be cleaned up when Run returns")
	}
}

func TestRunCycle_DetectorStartFailureIsRetried(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{}, true)
	f.startErrs = []error{camera.NewCaptureError("0", errors.New("device busy"))}

	_, err := f.watcher.RunCycle(context.Background())
	if !camera.IsCaptureError(err) {
		t.Fatalf("Expected CaptureError from detector start, got %v", err)
	}
	if f.detector.calls != 0 {
		t.Error("Detect must not run before the detector is built")
	}

	uploaded, err := f.watcher.RunCycle(context.Background())
	if err != nil || !uploaded {
		t.Fatalf("RunCycle = %v, %v; expected upload once the detector starts", uploaded, err)
	}
	if _, err := f.watcher.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if len(f.starts) != 2 {
		t.Errorf("Detector should be built once after the failed attempt, got %d attempts", len(f.starts))
	}
}

func TestRun_SurvivesCameraUnavailableAtStartup(t *testing.T) {
	f := newWatcherFixture(t, WatcherOptions{RetryDelay: time.Millisecond}, true)
	busy := camera.NewCaptureError("/dev/video0", errors.New("device busy"))
	f.startErrs = []error{busy, busy, busy}
	f.watcher.schedule = daylight.Fixed(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.detector.onExhausted = cancel

	if err := f.watcher.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.starts) != 4 {
		t.Errorf("Expected 4 start attempts, got %d", len(f.starts))
	}
	if f.starts[0] {
		t.Error("Detector should start with the scheduled night profile")
	}
	if len(f.store.uploads) != 1 {
		t.Errorf("Expected 1 upload after the camera came up, got %d", len(f.store.uploads))
	}
}

func TestWait(t *testing.T) {
	if !wait(context.Background(), time.Millisecond) {
		t.Error("wait should report a completed delay")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if wait(ctx, time.Hour) {
		t.Error("wait should stop on a cancelled context")
	}
	if wait(ctx, 0) {
		t.Error("wait with no delay should still report cancellation")
	}
}
