package resolution

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func EmptyResolution() Resolution {
	return Resolution{Width: 0, Height: 0}
}

// DetectionDefault is the low resolution used for motion sampling.
func DetectionDefault() Resolution {
	return Resolution{Width: 128, Height: 80}
}

func Resolution480p() Resolution {
	return Resolution{Width: 854, Height: 480}
}

func Resolution720p() Resolution {
	return Resolution{Width: 1280, Height: 720}
}

func Resolution1080p() Resolution {
	return Resolution{Width: 1920, Height: 1080}
}

// Resolution5MP is the full sensor resolution of the 5 megapixel camera module.
func Resolution5MP() Resolution {
	return Resolution{Width: 2592, Height: 1944}
}

// Returns the string representation of this Resolution (e.g. 128x80)
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Format replaces "w" and "h" in formatString with width and height, e.g. "w:h" -> "1280:720".
func (r Resolution) Format(formatString string) string {
	result := strings.ReplaceAll(formatString, "w", strconv.Itoa(r.Width))
	return strings.ReplaceAll(result, "h", strconv.Itoa(r.Height))
}

// Point returns the resolution as an image.Point, the size type gocv expects.
func (r Resolution) Point() image.Point {
	return image.Pt(r.Width, r.Height)
}

// Pixels returns the number of pixels in a frame of this resolution.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// IsEmpty checks if the resolution is empty (both width and height are zero).
func (r Resolution) IsEmpty() bool {
	return r.Width == 0 && r.Height == 0
}

// Parse converts a string representation of a resolution into a Resolution.
// Supported formats:
// - "128x80"
// - "1280:720"
// - "720p", "1080p", "480p"
// - "5mp" (2592x1944)
func Parse(resolutionStr string) (Resolution, error) {
	s := strings.ToLower(strings.TrimSpace(resolutionStr))

	var res Resolution
	var err error
	switch {
	case strings.Contains(s, "x"):
		res, err = parseDimensions(s)
	case strings.Contains(s, ":"):
		res, err = parseDimensions(strings.ReplaceAll(s, ":", "x"))
	case strings.HasSuffix(s, "p"), strings.HasSuffix(s, "mp"):
		res, err = parsePreset(s)
	default:
		err = fmt.Errorf("invalid resolution format: %s", resolutionStr)
	}
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func parseDimensions(dimStr string) (Resolution, error) {
	parts := strings.Split(dimStr, "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid dimensions: %s", dimStr)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return Resolution{}, fmt.Errorf("invalid width: %s", parts[0])
	}

	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return Resolution{}, fmt.Errorf("invalid height: %s", parts[1])
	}

	return Resolution{Width: width, Height: height}, nil
}

func parsePreset(preset string) (Resolution, error) {
	switch preset {
	case "5mp":
		return Resolution5MP(), nil
	case "1080p":
		return Resolution1080p(), nil
	case "720p":
		return Resolution720p(), nil
	case "480p":
		return Resolution480p(), nil
	default:
		return Resolution{}, fmt.Errorf("unsupported resolution preset: %s", preset)
	}
}
