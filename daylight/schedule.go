package daylight

import (
	"fmt"
	"time"

	"github.com/yeti47/snapwatch/config"
)

// Schedule decides whether the camera runs its day or night capture profile.
type Schedule interface {
	IsDaytime(now time.Time) bool
}

// Fixed is a schedule that never changes mode.
type Fixed bool

func (f Fixed) IsDaytime(time.Time) bool {
	return bool(f)
}

// Window is daytime between Start (inclusive) and End (exclusive), in local clock time.
// A window whose start is after its end wraps past midnight.
type Window struct {
	Start time.Duration // offset from midnight
	End   time.Duration
}

func (w Window) IsDaytime(now time.Time) bool {
	offset := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second

	if w.Start <= w.End {
		return offset >= w.Start && offset < w.End
	}
	return offset >= w.Start || offset < w.End
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FromConfig returns a Window when day start and end are configured, otherwise the fixed flag.
func FromConfig(cfg config.ScheduleConfig) (Schedule, error) {
	if cfg.DayStart == "" && cfg.DayEnd == "" {
		return Fixed(cfg.Daytime), nil
	}

	start, err := ParseClock(cfg.DayStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(cfg.DayEnd)
	if err != nil {
		return nil, err
	}
	if start == end {
		return nil, fmt.Errorf("day start and end must differ")
	}

	return Window{Start: start, End: end}, nil
}
