package opencv

import (
	"context"
	"fmt"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/logging"
	"gocv.io/x/gocv"
)

// GoCVStillCamera takes full resolution JPEG stills through OpenCV.
type GoCVStillCamera struct {
	device   string
	settings camera.StillSettings
	logger   logging.Logger
}

func NewGoCVStillCamera(device string, settings camera.StillSettings, logger logging.Logger) *GoCVStillCamera {
	return &GoCVStillCamera{
		device:   device,
		settings: settings,
		logger:   logging.OrNop(logger),
	}
}

func (c *GoCVStillCamera) Shoot(ctx context.Context, filePath string) (string, error) {
	if filePath == "" {
		filePath = c.settings.DefaultFilePath
	}

	webcam, err := openDevice(c.device)
	if err != nil {
		return "", camera.NewCaptureError(c.device, err)
	}
	defer webcam.Close()

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.settings.Resolution.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.settings.Resolution.Height))

	if err := sleepContext(ctx, c.settings.WarmUp); err != nil {
		return "", err
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := webcam.Read(&img); !ok || img.Empty() {
		return "", camera.NewCaptureError(c.device, fmt.Errorf("failed to read still frame"))
	}

	params := []int{int(gocv.IMWriteJpegQuality), c.settings.JPEGQuality}
	if ok := gocv.IMWriteWithParams(filePath, img, params); !ok {
		return "", camera.NewCaptureError(c.device, fmt.Errorf("failed to write still to %s", filePath))
	}

	c.logger.Info("Still captured", "path", filePath, "width", img.Cols(), "height", img.Rows())
	return filePath, nil
}
