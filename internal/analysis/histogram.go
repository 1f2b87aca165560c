package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// MaxHistogramBins caps the number of bins Histogram will allocate.
const MaxHistogramBins = 100_000

// Bin counts the values in the inclusive range [Low, High].
type Bin struct {
	Low   int `json:"low" yaml:"low"`
	High  int `json:"high" yaml:"high"`
	Count int `json:"count" yaml:"count"`
}

// Label renders the range as "Low-High".
func (b Bin) Label() string { return fmt.Sprintf("%d-%d", b.Low, b.High) }

// Histogram buckets values into bins of the given width starting at zero.
// Every bin up to the one holding the maximum is emitted, empty or not. An
// empty input yields no bins. A maximum needing more than MaxHistogramBins
// bins is rejected with ErrInvalidArgument.
func Histogram(values []int, width int) ([]Bin, error) {
	if width <= 0 {
		return nil, fmt.Errorf("histogram: bin width %d: %w", width, dataset.ErrInvalidArgument)
	}
	if len(values) == 0 {
		return []Bin{}, nil
	}
	if lo := slices.Min(values); lo < 0 {
		return nil, fmt.Errorf("histogram: negative value %d: %w", lo, dataset.ErrInvalidArgument)
	}
	// last indexes the bin holding the maximum
	hi := slices.Max(values)
	last := hi / width
	if last >= MaxHistogramBins {
		return nil, fmt.Errorf("histogram: maximum %d at width %d needs more than %d bins: %w",
			hi, width, MaxHistogramBins, dataset.ErrInvalidArgument)
	}
	bins := make([]Bin, last+1)
	for i := range bins {
		low := i * width
		high := math.MaxInt
		if low <= math.MaxInt-(width-1) {
			high = low + width - 1
		}
		bins[i] = Bin{Low: low, High: high}
	}
	for _, v := range values {
		bins[v/width].Count++
	}
	return bins, nil
}
