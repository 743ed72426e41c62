package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	ImageStore     ImageStoreConfig     `json:"image_store" yaml:"image_store"`
	Camera         CameraConfig         `json:"camera" yaml:"camera"`
	Detection      DetectionConfig      `json:"detection" yaml:"detection"`
	Still          StillConfig          `json:"still" yaml:"still"`
	Schedule       ScheduleConfig       `json:"schedule" yaml:"schedule"`
	PostProcessing PostProcessingConfig `json:"post_processing" yaml:"post_processing"`

	KeepCaptures      bool   `json:"keep_captures" yaml:"keep_captures"`             // Keep stills on disk after a successful upload
	RetryDelaySeconds int    `json:"retry_delay_seconds" yaml:"retry_delay_seconds"` // Pause after a failed cycle
	LogPath           string `json:"log_path" yaml:"log_path"`
	LogRetentionDays  int    `json:"log_retention_days" yaml:"log_retention_days"` // 0 keeps every log file
	LogLevel          string `json:"log_level" yaml:"log_level"`
}

// ImageStoreConfig holds the remote image store connection. Empty credentials fall back to the environment.
type ImageStoreConfig struct {
	Host           string `json:"host" yaml:"host"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type CameraConfig struct {
	Device        string  `json:"device" yaml:"device"`
	WarmUpSeconds float64 `json:"warm_up_seconds" yaml:"warm_up_seconds"`
}

type DetectionConfig struct {
	PixelThreshold        int     `json:"pixel_threshold" yaml:"pixel_threshold"`     // How much a pixel has to change
	MaxPixelChanges       int     `json:"max_pixel_changes" yaml:"max_pixel_changes"` // How many pixels need to change for motion
	Resolution            string  `json:"resolution" yaml:"resolution"`
	Channel               int     `json:"channel" yaml:"channel"` // red=0 green=1 blue=2
	NightShutterSeconds   float64 `json:"night_shutter_seconds" yaml:"night_shutter_seconds"`
	NightISO              int     `json:"night_iso" yaml:"night_iso"`
	NightAWBWarmUpSeconds float64 `json:"night_awb_warm_up_seconds" yaml:"night_awb_warm_up_seconds"`
	ExhaustiveScan        bool    `json:"exhaustive_scan" yaml:"exhaustive_scan"`
}

type StillConfig struct {
	Resolution    string  `json:"resolution" yaml:"resolution"`
	FilePath      string  `json:"file_path" yaml:"file_path"`
	JPEGQuality   int     `json:"jpeg_quality" yaml:"jpeg_quality"`
	WarmUpSeconds float64 `json:"warm_up_seconds" yaml:"warm_up_seconds"`
}

// ScheduleConfig decides day or night mode. With DayStart and DayEnd empty, Daytime is used as is.
type ScheduleConfig struct {
	DayStart string `json:"day_start" yaml:"day_start"` // "07:00"
	DayEnd   string `json:"day_end" yaml:"day_end"`     // "19:30"
	Daytime  bool   `json:"daytime" yaml:"daytime"`
}

type PostProcessingConfig struct {
	Grayscale           bool   `json:"grayscale" yaml:"grayscale"`
	DownscaleResolution string `json:"downscale_resolution" yaml:"downscale_resolution"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		ImageStore: ImageStoreConfig{
			TimeoutSeconds: 30,
		},
		Camera: CameraConfig{
			Device:        "0",
			WarmUpSeconds: 2,
		},
		Detection: DetectionConfig{
			PixelThreshold:        10,
			MaxPixelChanges:       200,
			Resolution:            "128x80",
			Channel:               1,
			NightShutterSeconds:   5.5, // Do not exceed 6 since the camera may lock up
			NightISO:              800,
			NightAWBWarmUpSeconds: 10,
		},
		Still: StillConfig{
			Resolution:    "5mp",
			FilePath:      "capture.jpg",
			JPEGQuality:   90,
			WarmUpSeconds: 2,
		},
		Schedule: ScheduleConfig{
			Daytime: true,
		},
		RetryDelaySeconds: 1,
		LogPath:           "logs",
		LogRetentionDays:  14,
		LogLevel:          "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// A missing file is created with the default configuration.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			if err := config.SaveConfig(filename); err != nil {
				return nil, fmt.Errorf("failed to create default config file: %w", err)
			}
			fmt.Printf("Default config file created at %s\n", filename)
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(filename string) error {
	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.ImageStore.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid image store timeout: %d", c.ImageStore.TimeoutSeconds)
	}
	if c.RetryDelaySeconds < 0 {
		return fmt.Errorf("invalid retry delay: %d", c.RetryDelaySeconds)
	}
	if c.LogRetentionDays < 0 {
		return fmt.Errorf("invalid log retention: %d", c.LogRetentionDays)
	}
	if c.Still.FilePath == "" {
		return fmt.Errorf("still file path must not be empty")
	}
	if (c.Schedule.DayStart == "") != (c.Schedule.DayEnd == "") {
		return fmt.Errorf("day_start and day_end must be set together")
	}
	return nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

func (c *ImageStoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Seconds converts a fractional seconds config value to a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	Host            *string
	Username        *string
	Password        *string
	CameraDevice    *string
	CapturePath     *string
	PixelThreshold  *int
	MaxPixelChanges *int
	LogLevel        *string
	KeepCaptures    *bool
}

// Override allows overriding specific configuration values using ConfigOverrides struct
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.Host != nil && *overrides.Host != "" {
		c.ImageStore.Host = *overrides.Host
	}
	if overrides.Username != nil && *overrides.Username != "" {
		c.ImageStore.Username = *overrides.Username
	}
	if overrides.Password != nil && *overrides.Password != "" {
		c.ImageStore.Password = *overrides.Password
	}
	if overrides.CameraDevice != nil && *overrides.CameraDevice != "" {
		c.Camera.Device = *overrides.CameraDevice
	}
	if overrides.CapturePath != nil && *overrides.CapturePath != "" {
		c.Still.FilePath = *overrides.CapturePath
	}
	// nil means the flag was not given; zero is a valid threshold
	if overrides.PixelThreshold != nil {
		c.Detection.PixelThreshold = *overrides.PixelThreshold
	}
	if overrides.MaxPixelChanges != nil {
		c.Detection.MaxPixelChanges = *overrides.MaxPixelChanges
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		c.LogLevel = *overrides.LogLevel
	}
	if overrides.KeepCaptures != nil {
		c.KeepCaptures = *overrides.KeepCaptures
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
