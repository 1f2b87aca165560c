package analysis

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// Statistics answers aggregate queries over a read-only snapshot of a
// collection. Every query fails with dataset.ErrEmptyCollection when the
// snapshot holds no records.
type Statistics struct {
	records []dataset.Record // ascending date order
}

// NewStatistics snapshots c. Later changes to c are not observed.
func NewStatistics(c *dataset.Collection) (*Statistics, error) {
	if c == nil {
		return nil, fmt.Errorf("statistics: nil collection: %w", dataset.ErrInvalidArgument)
	}
	return &Statistics{records: c.Records()}, nil
}

// Len is the number of records in the snapshot.
func (s *Statistics) Len() int { return len(s.records) }

func (s *Statistics) nonEmpty() error {
	if len(s.records) == 0 {
		return dataset.ErrEmptyCollection
	}
	return nil
}

// Highest returns the record with the largest value of f. Ties go to the
// earliest date.
func (s *Statistics) Highest(f dataset.Field) (dataset.Record, error) {
	return s.extreme(f, func(v, best int) bool { return v > best })
}

// Lowest returns the record with the smallest value of f. Ties go to the
// earliest date.
func (s *Statistics) Lowest(f dataset.Field) (dataset.Record, error) {
	return s.extreme(f, func(v, best int) bool { return v < best })
}

func (s *Statistics) extreme(f dataset.Field, better func(v, best int) bool) (dataset.Record, error) {
	if err := s.nonEmpty(); err != nil {
		return dataset.Record{}, err
	}
	best := s.records[0]
	for _, r := range s.records[1:] {
		if better(f.Value(r), f.Value(best)) {
			best = r
		}
	}
	return best, nil
}

// FirstPositiveDay is the earliest date with at least one positive test.
func (s *Statistics) FirstPositiveDay() (time.Time, error) {
	if err := s.nonEmpty(); err != nil {
		return time.Time{}, err
	}
	for _, r := range s.records {
		if r.PositiveTests > 0 {
			return r.Date, nil
		}
	}
	return time.Time{}, dataset.ErrNoPositiveData
}

// SinceFirstPositive returns the records dated on or after the first
// positive day, in ascending date order.
func (s *Statistics) SinceFirstPositive() ([]dataset.Record, error) {
	first, err := s.FirstPositiveDay()
	if err != nil {
		return nil, err
	}
	for i, r := range s.records {
		if !r.Date.Before(first) {
			out := make([]dataset.Record, len(s.records)-i)
			copy(out, s.records[i:])
			return out, nil
		}
	}
	return nil, dataset.ErrNoPositiveData
}

// AveragePositiveSinceFirstPositive is the mean daily positive count over the
// window starting at the first positive day.
func (s *Statistics) AveragePositiveSinceFirstPositive() (float64, error) {
	return s.windowMean(dataset.FieldPositiveTests)
}

// AverageTotalSinceFirstPositive is the mean daily total test count over the
// same window.
func (s *Statistics) AverageTotalSinceFirstPositive() (float64, error) {
	return s.windowMean(dataset.FieldTotalTests)
}

func (s *Statistics) windowMean(f dataset.Field) (float64, error) {
	window, err := s.SinceFirstPositive()
	if err != nil {
		return 0, err
	}
	return mean(window, f)
}

// PositivityRateSinceFirstPositive is mean positive over mean total across
// the window. It fails with dataset.ErrUnavailable when no tests were run.
func (s *Statistics) PositivityRateSinceFirstPositive() (float64, error) {
	pos, err := s.AveragePositiveSinceFirstPositive()
	if err != nil {
		return 0, err
	}
	total, err := s.AverageTotalSinceFirstPositive()
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, fmt.Errorf("positivity rate: mean total tests is zero: %w", dataset.ErrUnavailable)
	}
	return pos / total, nil
}

// Positivity pairs a record with its positive/total ratio.
type Positivity struct {
	Record dataset.Record `json:"record" yaml:"record"`
	Ratio  float64        `json:"ratio" yaml:"ratio"`
}

// HighestPositivity returns the day with the largest positive/total ratio
// among days with at least one test. Ties go to the earliest date.
func (s *Statistics) HighestPositivity() (Positivity, error) {
	if err := s.nonEmpty(); err != nil {
		return Positivity{}, err
	}
	var best Positivity
	found := false
	for _, r := range s.records {
		if r.TotalTests <= 0 {
			continue
		}
		ratio := float64(r.PositiveTests) / float64(r.TotalTests)
		if !found || ratio > best.Ratio {
			best = Positivity{Record: r, Ratio: ratio}
			found = true
		}
	}
	if !found {
		return Positivity{}, fmt.Errorf("highest positivity: no day with tests: %w", dataset.ErrUnavailable)
	}
	return best, nil
}

// DaysAbove counts window days with strictly more positives than threshold.
func (s *Statistics) DaysAbove(threshold int) (int, error) {
	return s.countWindow(func(r dataset.Record) bool { return r.PositiveTests > threshold })
}

// DaysBelow counts window days with strictly fewer positives than threshold.
func (s *Statistics) DaysBelow(threshold int) (int, error) {
	return s.countWindow(func(r dataset.Record) bool { return r.PositiveTests < threshold })
}

func (s *Statistics) countWindow(match func(dataset.Record) bool) (int, error) {
	window, err := s.SinceFirstPositive()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range window {
		if match(r) {
			n++
		}
	}
	return n, nil
}

// PositiveTestsSinceFirstPositive lists the daily positive counts of the
// window, the usual histogram input.
func (s *Statistics) PositiveTestsSinceFirstPositive() ([]int, error) {
	window, err := s.SinceFirstPositive()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(window))
	for i, r := range window {
		out[i] = r.PositiveTests
	}
	return out, nil
}

// Monthly summarizes the window month by month, gap months included.
func (s *Statistics) Monthly() ([]MonthSummary, error) {
	window, err := s.SinceFirstPositive()
	if err != nil {
		return nil, err
	}
	return MonthlySummaries(window), nil
}

func mean(records []dataset.Record, f dataset.Field) (float64, error) {
	data := make(stats.Float64Data, len(records))
	for i, r := range records {
		data[i] = float64(f.Value(r))
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0, fmt.Errorf("mean %s: %w", f, dataset.ErrEmptyCollection)
	}
	return m, nil
}
