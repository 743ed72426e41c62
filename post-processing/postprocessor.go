package postprocessing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xfrr/goffmpeg/transcoder"
	"github.com/yeti47/snapwatch/logging"
)

type PostProcessor interface {
	// ProcessStill processes a captured still and returns the path of the file to upload.
	ProcessStill(filePath string) (string, error)
}

type FfmpegPostProcessor struct {
	settings PostProcessingSettings
	logger   logging.Logger
}

func NewFfmpegPostProcessor(settings PostProcessingSettings, logger logging.Logger) *FfmpegPostProcessor {
	return &FfmpegPostProcessor{
		settings: settings,
		logger:   logging.OrNop(logger),
	}
}

// ProcessStill runs the configured filters through ffmpeg. With nothing configured
// the input path is returned unchanged and ffmpeg is not invoked.
func (p *FfmpegPostProcessor) ProcessStill(filePath string) (string, error) {
	if !p.settings.Enabled() {
		return filePath, nil
	}

	outputPath := getOutputPath(filePath)

	// ffmpeg prompts before overwriting, so clear the previous result
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove previous output %s: %w", outputPath, err)
	}

	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(filePath, outputPath); err != nil {
		return "", fmt.Errorf("failed to initialize transcoder: %w", err)
	}

	trans.MediaFile().SetSkipAudio(true)
	trans.MediaFile().SetVideoFilter(buildFilterChain(p.settings))

	done := trans.Run(false)
	if err := <-done; err != nil {
		return "", fmt.Errorf("failed to process still %s: %w", filePath, err)
	}

	p.logger.Debug("Processed still", "input", filePath, "output", outputPath)
	return outputPath, nil
}

func buildFilterChain(settings PostProcessingSettings) string {
	var filters []string

	if settings.Grayscale {
		filters = append(filters, "format=gray")
	}
	if !settings.DownscaleResolution.IsEmpty() {
		filters = append(filters, fmt.Sprintf("scale=%s", settings.DownscaleResolution.Format("w:h")))
	}

	return strings.Join(filters, ",")
}

// getOutputPath places the result next to the input as <name>_processed<ext>
func getOutputPath(filePath string) string {
	ext := filepath.Ext(filePath)
	if ext == "" {
		ext = ".jpg"
	}
	return strings.TrimSuffix(filePath, filepath.Ext(filePath)) + "_processed" + ext
}
