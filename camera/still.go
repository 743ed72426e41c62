package camera

import (
	"fmt"
	"time"

	"github.com/yeti47/snapwatch/config"
	"github.com/yeti47/snapwatch/resolution"
)

var DefaultStillSettings = StillSettings{
	Resolution:      resolution.Resolution5MP(),
	DefaultFilePath: "still_image.jpg",
	JPEGQuality:     90,
	WarmUp:          2 * time.Second,
}

type StillSettings struct {
	Resolution      resolution.Resolution // Full capture resolution
	DefaultFilePath string                // Where Shoot writes when no path is given
	JPEGQuality     int                   // 1-100
	WarmUp          time.Duration         // Sensor run time before the frame is read
}

// StillSettingsOverrides holds optional values that replace the defaults.
// Nil and zero values keep the current setting.
type StillSettingsOverrides struct {
	Resolution      *resolution.Resolution
	DefaultFilePath *string
	JPEGQuality     *int
	WarmUp          *time.Duration
}

// NewStillSettings returns DefaultStillSettings with the overrides applied.
func NewStillSettings(overrides StillSettingsOverrides) StillSettings {
	settings := DefaultStillSettings
	settings.Override(overrides)
	return settings
}

// Override replaces the settings that are set in overrides.
func (s *StillSettings) Override(overrides StillSettingsOverrides) {
	if overrides.Resolution != nil && !overrides.Resolution.IsEmpty() {
		s.Resolution = *overrides.Resolution
	}
	if overrides.DefaultFilePath != nil && *overrides.DefaultFilePath != "" {
		s.DefaultFilePath = *overrides.DefaultFilePath
	}
	if overrides.JPEGQuality != nil && *overrides.JPEGQuality > 0 && *overrides.JPEGQuality <= 100 {
		s.JPEGQuality = *overrides.JPEGQuality
	}
	if overrides.WarmUp != nil && *overrides.WarmUp > 0 {
		s.WarmUp = *overrides.WarmUp
	}
}

// StillSettingsFromConfig builds still settings from the config section
func StillSettingsFromConfig(cfg config.StillConfig) (StillSettings, error) {
	res, err := resolution.Parse(cfg.Resolution)
	if err != nil {
		return StillSettings{}, fmt.Errorf("invalid still resolution: %w", err)
	}
	warmUp := config.Seconds(cfg.WarmUpSeconds)

	return NewStillSettings(StillSettingsOverrides{
		Resolution:      &res,
		DefaultFilePath: &cfg.FilePath,
		JPEGQuality:     &cfg.JPEGQuality,
		WarmUp:          &warmUp,
	}), nil
}
