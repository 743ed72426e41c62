package postprocessing

import (
	"fmt"
	"strings"

	"github.com/yeti47/snapwatch/config"
	"github.com/yeti47/snapwatch/resolution"
)

type PostProcessingSettings struct {
	Grayscale           bool                  // Whether to convert stills to grayscale
	DownscaleResolution resolution.Resolution // Resolution to downscale stills to, empty keeps the original size
}

// Enabled reports whether any processing step is configured
func (s PostProcessingSettings) Enabled() bool {
	return s.Grayscale || !s.DownscaleResolution.IsEmpty()
}

// SettingsFromConfig maps the post-processing config section. An empty resolution disables downscaling.
func SettingsFromConfig(cfg config.PostProcessingConfig) (PostProcessingSettings, error) {
	downscaleRes := resolution.EmptyResolution()
	if strings.TrimSpace(cfg.DownscaleResolution) != "" {
		parsedRes, err := resolution.Parse(cfg.DownscaleResolution)
		if err != nil {
			return PostProcessingSettings{}, fmt.Errorf("invalid downscale resolution: %w", err)
		}
		downscaleRes = parsedRes
	}

	return PostProcessingSettings{
		Grayscale:           cfg.Grayscale,
		DownscaleResolution: downscaleRes,
	}, nil
}
