package opencv

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/logging"
	"gocv.io/x/gocv"
)

// DefaultWarmUp is how long the sensor runs before a frame is read.
const DefaultWarmUp = 2 * time.Second

// V4L2 values for the auto exposure control: aperture priority (auto) and manual.
const (
	v4l2AutoExposureOn  = 3
	v4l2AutoExposureOff = 1
)

// GoCVFrameSampler samples low resolution frames from a V4L2 camera through OpenCV.
type GoCVFrameSampler struct {
	device string // Device identifier, e.g., "/dev/video0" or "0" for default camera
	warmUp time.Duration
	logger logging.Logger
}

func NewGoCVFrameSampler(device string, warmUp time.Duration, logger logging.Logger) *GoCVFrameSampler {
	if warmUp <= 0 {
		warmUp = DefaultWarmUp
	}
	return &GoCVFrameSampler{
		device: device,
		warmUp: warmUp,
		logger: logging.OrNop(logger),
	}
}

func (s *GoCVFrameSampler) Sample(ctx context.Context, opts camera.SampleOptions) (*camera.PixelBuffer, error) {
	webcam, err := openDevice(s.device)
	if err != nil {
		return nil, camera.NewCaptureError(s.device, err)
	}
	defer webcam.Close()

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	applySampleOptions(webcam, opts)

	s.logger.Debug("Sampling frame", "device", s.device, "width", opts.Width, "height", opts.Height,
		"autoExposure", opts.AutoExposure, "shutter", opts.ShutterSpeed, "iso", opts.ISO)

	if err := sleepContext(ctx, s.warmUp+opts.Settle); err != nil {
		return nil, err
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := webcam.Read(&img); !ok || img.Empty() {
		return nil, camera.NewCaptureError(s.device, fmt.Errorf("failed to read frame"))
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(opts.Width, opts.Height), 0, 0, gocv.InterpolationArea)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	return matToPixelBuffer(rgb)
}

func applySampleOptions(webcam *gocv.VideoCapture, opts camera.SampleOptions) {
	if opts.AutoExposure {
		webcam.Set(gocv.VideoCaptureAutoExposure, v4l2AutoExposureOn)
	} else {
		webcam.Set(gocv.VideoCaptureAutoExposure, v4l2AutoExposureOff)
	}
	if opts.AutoWhiteBalance {
		webcam.Set(gocv.VideoCaptureAutoWB, 1)
	} else {
		webcam.Set(gocv.VideoCaptureAutoWB, 0)
	}
	if opts.FrameRate > 0 {
		webcam.Set(gocv.VideoCaptureFPS, opts.FrameRate)
	}
	if opts.ShutterSpeed > 0 {
		// exposure_time_absolute is in 100µs units
		webcam.Set(gocv.VideoCaptureExposure, float64(opts.ShutterSpeed.Microseconds())/100)
	}
	if opts.ISO > 0 {
		webcam.Set(gocv.VideoCaptureISOSpeed, float64(opts.ISO))
	}
}

func matToPixelBuffer(mat gocv.Mat) (*camera.PixelBuffer, error) {
	buf := &camera.PixelBuffer{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Pix:      mat.ToBytes(),
	}
	if len(buf.Pix) != buf.Width*buf.Height*buf.Channels {
		return nil, camera.NewCaptureError("", fmt.Errorf("unexpected frame layout: %d bytes for %dx%dx%d",
			len(buf.Pix), buf.Width, buf.Height, buf.Channels))
	}
	return buf, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// openDevice accepts either a numeric device index or a device path.
func openDevice(device string) (*gocv.VideoCapture, error) {
	if device == "" {
		device = "0"
	}
	if id, err := strconv.Atoi(device); err == nil {
		return gocv.OpenVideoCapture(id)
	}
	return gocv.OpenVideoCapture(device)
}
