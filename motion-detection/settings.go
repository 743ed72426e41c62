package motiondetection

import (
	"fmt"
	"time"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/config"
	"github.com/yeti47/snapwatch/resolution"
)

// MaxNightShutterSpeed is the hardware ceiling; longer exposures can lock up the camera module.
const MaxNightShutterSpeed = 6 * time.Second

// NightFrameRate is the fixed low frame rate used at night (one frame every six seconds).
const NightFrameRate = 1.0 / 6

type DetectionSettings struct {
	PixelThreshold    int                   // Minimum per-pixel channel delta that counts as changed
	MaxPixelChanges   int                   // Changed pixel count that must be exceeded for motion
	Resolution        resolution.Resolution // Detection frame size
	Channel           int                   // Channel compared, red=0 green=1 blue=2
	NightShutterSpeed time.Duration
	NightISO          int
	NightAWBWarmUp    time.Duration // Settle time before a night sample is read
	ExhaustiveScan    bool          // Scan every pixel even after the verdict is known
}

// DefaultDetectionSettings returns the defaults tuned for a Pi camera watching a garden.
func DefaultDetectionSettings() DetectionSettings {
	return DetectionSettings{
		PixelThreshold:    10,
		MaxPixelChanges:   200,
		Resolution:        resolution.DetectionDefault(),
		Channel:           camera.ChannelGreen,
		NightShutterSpeed: 5500 * time.Millisecond,
		NightISO:          800,
		NightAWBWarmUp:    10 * time.Second,
	}
}

// Validate checks the settings against the camera limits.
func (s DetectionSettings) Validate() error {
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return fmt.Errorf("invalid detection resolution: %s", s.Resolution)
	}
	if s.PixelThreshold < 0 {
		return fmt.Errorf("pixel threshold must not be negative: %d", s.PixelThreshold)
	}
	if s.MaxPixelChanges < 0 {
		return fmt.Errorf("max pixel changes must not be negative: %d", s.MaxPixelChanges)
	}
	if s.Channel < camera.ChannelRed || s.Channel > camera.ChannelBlue {
		return fmt.Errorf("invalid channel: %d", s.Channel)
	}
	if s.NightShutterSpeed <= 0 || s.NightShutterSpeed >= MaxNightShutterSpeed {
		return fmt.Errorf("night shutter speed %v must be above zero and below %v", s.NightShutterSpeed, MaxNightShutterSpeed)
	}
	if s.NightISO < 0 {
		return fmt.Errorf("night ISO must not be negative: %d", s.NightISO)
	}
	if s.NightAWBWarmUp < 0 {
		return fmt.Errorf("night AWB warm-up must not be negative: %v", s.NightAWBWarmUp)
	}
	return nil
}

// SampleOptions returns the capture parameters for the given mode.
// Daytime lets the camera choose exposure and white balance. Night fixes a long
// exposure at a low frame rate and gives auto white balance time to settle.
func (s DetectionSettings) SampleOptions(isDaytime bool) camera.SampleOptions {
	opts := camera.SampleOptions{
		Width:            s.Resolution.Width,
		Height:           s.Resolution.Height,
		AutoExposure:     true,
		AutoWhiteBalance: true,
	}
	if isDaytime {
		return opts
	}

	opts.FrameRate = NightFrameRate
	opts.ShutterSpeed = s.NightShutterSpeed
	opts.AutoExposure = false
	opts.ISO = s.NightISO
	opts.Settle = s.NightAWBWarmUp
	return opts
}

// SettingsFromConfig maps the detection section of the config file onto DetectionSettings.
func SettingsFromConfig(cfg config.DetectionConfig) (DetectionSettings, error) {
	settings := DefaultDetectionSettings()

	if cfg.Resolution != "" {
		res, err := resolution.Parse(cfg.Resolution)
		if err != nil {
			return DetectionSettings{}, fmt.Errorf("invalid detection resolution: %w", err)
		}
		settings.Resolution = res
	}

	settings.PixelThreshold = cfg.PixelThreshold
	settings.MaxPixelChanges = cfg.MaxPixelChanges
	settings.Channel = cfg.Channel
	settings.ExhaustiveScan = cfg.ExhaustiveScan
	if cfg.NightShutterSeconds > 0 {
		settings.NightShutterSpeed = config.Seconds(cfg.NightShutterSeconds)
	}
	if cfg.NightISO > 0 {
		settings.NightISO = cfg.NightISO
	}
	if cfg.NightAWBWarmUpSeconds >= 0 {
		settings.NightAWBWarmUp = config.Seconds(cfg.NightAWBWarmUpSeconds)
	}

	if err := settings.Validate(); err != nil {
		return DetectionSettings{}, err
	}
	return settings, nil
}
