package report

import (
	"strconv"
	"strings"
)

// RawSettings carries report options exactly as the user typed them.
type RawSettings struct {
	// RegionFilter nil means "use the default region"; a pointer to "" means
	// every region.
	RegionFilter           *string
	UpperPositiveThreshold string
	LowerPositiveThreshold string
	HistogramBinWidth      string
}

// Settings are the parsed report options.
type Settings struct {
	RegionFilter           string `json:"region_filter" yaml:"region_filter"`
	UpperPositiveThreshold int    `json:"upper_positive_threshold" yaml:"upper_positive_threshold"`
	LowerPositiveThreshold int    `json:"lower_positive_threshold" yaml:"lower_positive_threshold"`
	HistogramBinWidth      int    `json:"histogram_bin_width" yaml:"histogram_bin_width"`
	Workers                int    `json:"-" yaml:"-"`
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		RegionFilter:           "GA",
		UpperPositiveThreshold: 2500,
		LowerPositiveThreshold: 1000,
		HistogramBinWidth:      500,
		Workers:                4,
	}
}

// ParseSettings converts raw input, falling back to defaults for every value
// that is empty or invalid. It never fails.
func ParseSettings(raw RawSettings, defaults Settings) Settings {
	s := defaults
	if raw.RegionFilter != nil {
		s.RegionFilter = strings.TrimSpace(*raw.RegionFilter)
	}
	s.UpperPositiveThreshold = parseInt(raw.UpperPositiveThreshold, defaults.UpperPositiveThreshold, 0)
	s.LowerPositiveThreshold = parseInt(raw.LowerPositiveThreshold, defaults.LowerPositiveThreshold, 0)
	s.HistogramBinWidth = parseInt(raw.HistogramBinWidth, defaults.HistogramBinWidth, 1)
	if s.Workers < 1 {
		s.Workers = 1
	}
	return s
}

func parseInt(raw string, fallback, minimum int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum {
		return fallback
	}
	return n
}
