package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yeti47/snapwatch/camera"
	"github.com/yeti47/snapwatch/camera/opencv"
	"github.com/yeti47/snapwatch/client"
	"github.com/yeti47/snapwatch/config"
	"github.com/yeti47/snapwatch/daylight"
	filemanagement "github.com/yeti47/snapwatch/file-management"
	"github.com/yeti47/snapwatch/logging"
	motiondetection "github.com/yeti47/snapwatch/motion-detection"
	postprocessing "github.com/yeti47/snapwatch/post-processing"
	"github.com/yeti47/snapwatch/watcher"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.json", "Path to the JSON or YAML config file")
	envFile := flag.String("env-file", ".env", "Optional .env file with IMAGE_STORE_* variables")
	testMode := flag.Bool("test", false, "Run in test mode with mock image store client")

	// Config override flags
	host := flag.String("host", "", "Image store host (overrides config)")
	username := flag.String("username", "", "Image store username (overrides config)")
	password := flag.String("password", "", "Image store password (overrides config)")
	cameraDevice := flag.String("camera-device", "", "Camera device index or path (overrides config)")
	capturePath := flag.String("capture-path", "", "Where stills are written (overrides config)")
	pixelThreshold := flag.Int("pixel-threshold", 0, "Per-pixel change threshold (overrides config)")
	maxPixelChanges := flag.Int("max-pixel-changes", 0, "Changed pixels needed for motion (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	keepCaptures := flag.Bool("keep-captures", false, "Keep stills on disk after upload (overrides config)")

	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	overrides := config.ConfigOverrides{
		Host:         host,
		Username:     username,
		Password:     password,
		CameraDevice: cameraDevice,
		CapturePath:  capturePath,
		LogLevel:     logLevel,
	}
	// zero and false are valid values, so these only override when the flag was given
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pixel-threshold":
			overrides.PixelThreshold = pixelThreshold
		case "max-pixel-changes":
			overrides.MaxPixelChanges = maxPixelChanges
		case "keep-captures":
			overrides.KeepCaptures = keepCaptures
		}
	})
	cfg.Override(overrides)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser := logging.CreateLogger(logging.LogLevel(cfg.LogLevel), cfg.LogPath, "snapwatch", cfg.LogRetentionDays)
	defer logCloser.Close()

	// os.Exit skips deferred calls, so the log file is closed here
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	// Log final configuration (without sensitive data)
	logger.Info("Configuration loaded",
		"host", cfg.ImageStore.Host,
		"camera_device", cfg.Camera.Device,
		"capture_path", cfg.Still.FilePath,
		"pixel_threshold", cfg.Detection.PixelThreshold,
		"max_pixel_changes", cfg.Detection.MaxPixelChanges,
		"detection_resolution", cfg.Detection.Resolution,
		"keep_captures", cfg.KeepCaptures)

	detectionSettings, err := motiondetection.SettingsFromConfig(cfg.Detection)
	if err != nil {
		fatal("Invalid detection settings", err)
	}
	stillSettings, err := camera.StillSettingsFromConfig(cfg.Still)
	if err != nil {
		fatal("Invalid still settings", err)
	}
	postProcessingSettings, err := postprocessing.SettingsFromConfig(cfg.PostProcessing)
	if err != nil {
		fatal("Invalid post-processing settings", err)
	}
	schedule, err := daylight.FromConfig(cfg.Schedule)
	if err != nil {
		fatal("Invalid schedule", err)
	}

	// Create image store client based on mode
	var imageStore client.ImageStoreClient
	if *testMode {
		mockClient, err := client.NewMockImageStoreClient(filepath.Join(".", "mock-uploads"), logger)
		if err != nil {
			fatal("Failed to create mock client", err)
		}
		logger.Info("Running in TEST MODE with mock image store client", "output_dir", mockClient.GetOutputDirectory())
		imageStore = mockClient
	} else {
		logger.Info("Running in PRODUCTION MODE with image store client")
		imageStore = client.NewHTTPImageStoreClient(client.ClientSettings{
			Host:     cfg.ImageStore.Host,
			Username: cfg.ImageStore.Username,
			Password: cfg.ImageStore.Password,
			Timeout:  cfg.ImageStore.Timeout(),
		}, logger)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sampler := opencv.NewGoCVFrameSampler(cfg.Camera.Device, config.Seconds(cfg.Camera.WarmUpSeconds), logger)

	newDetector := func(ctx context.Context, isDaytime bool) (motiondetection.MotionDetector, error) {
		engine, err := motiondetection.NewEngine(ctx, sampler, detectionSettings, isDaytime, logger)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}

	app := watcher.NewMotionWatcher(
		newDetector,
		opencv.NewGoCVStillCamera(cfg.Camera.Device, stillSettings, logger),
		postprocessing.NewFfmpegPostProcessor(postProcessingSettings, logger),
		imageStore,
		filemanagement.NewLocalFileTracker(logger),
		schedule,
		watcher.WatcherOptions{
			CapturePath:  stillSettings.DefaultFilePath,
			KeepCaptures: cfg.KeepCaptures,
			RetryDelay:   cfg.RetryDelay(),
		},
		logger,
	)

	if err := app.Run(ctx); err != nil {
		fatal("Motion watcher failed", err)
	}

	logger.Info("Snapwatch stopped")
}
