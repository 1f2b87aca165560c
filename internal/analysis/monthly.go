package analysis

import (
	"fmt"
	"slices"
	"time"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// Extreme is an extreme value together with every date that reached it.
type Extreme struct {
	Value int         `json:"value" yaml:"value"`
	Dates []time.Time `json:"dates" yaml:"dates"`
}

// MonthSummary aggregates one calendar month. Gap months have Days == 0 and
// zero aggregates.
type MonthSummary struct {
	Year            int        `json:"year" yaml:"year"`
	Month           time.Month `json:"month" yaml:"month"`
	Days            int        `json:"days" yaml:"days"`
	HighestPositive Extreme    `json:"highest_positive" yaml:"highest_positive"`
	LowestPositive  Extreme    `json:"lowest_positive" yaml:"lowest_positive"`
	HighestTotal    Extreme    `json:"highest_total" yaml:"highest_total"`
	LowestTotal     Extreme    `json:"lowest_total" yaml:"lowest_total"`
	AveragePositive float64    `json:"average_positive" yaml:"average_positive"`
	AverageTotal    float64    `json:"average_total" yaml:"average_total"`
}

// IsGap reports whether the month has no records.
func (m MonthSummary) IsGap() bool { return m.Days == 0 }

// Title renders the month as "March 2020".
func (m MonthSummary) Title() string { return fmt.Sprintf("%s %d", m.Month, m.Year) }

// MonthlySummaries groups records by calendar month and emits one summary for
// every month from the earliest record's month through the latest's.
func MonthlySummaries(records []dataset.Record) []MonthSummary {
	if len(records) == 0 {
		return []MonthSummary{}
	}
	byMonth := map[monthKey][]dataset.Record{}
	first, last := keyOf(records[0].Date), keyOf(records[0].Date)
	for _, r := range records {
		k := keyOf(r.Date)
		byMonth[k] = append(byMonth[k], r)
		first, last = min(first, k), max(last, k)
	}

	out := make([]MonthSummary, 0, last-first+1)
	for k := first; k <= last; k++ {
		out = append(out, summarizeMonth(k, byMonth[k]))
	}
	return out
}

// monthKey counts months since year zero so consecutive months differ by one
// across December/January.
type monthKey int

func keyOf(t time.Time) monthKey { return monthKey(t.Year()*12 + int(t.Month()) - 1) }

func (k monthKey) year() int { return int(k) / 12 }

func (k monthKey) month() time.Month { return time.Month(int(k)%12 + 1) }

func summarizeMonth(k monthKey, records []dataset.Record) MonthSummary {
	sum := MonthSummary{Year: k.year(), Month: k.month(), Days: len(records)}
	if len(records) == 0 {
		return sum
	}
	sortByDate(records)
	sum.HighestPositive = extremeOf(records, dataset.FieldPositiveTests, func(v, best int) bool { return v > best })
	sum.LowestPositive = extremeOf(records, dataset.FieldPositiveTests, func(v, best int) bool { return v < best })
	sum.HighestTotal = extremeOf(records, dataset.FieldTotalTests, func(v, best int) bool { return v > best })
	sum.LowestTotal = extremeOf(records, dataset.FieldTotalTests, func(v, best int) bool { return v < best })
	// records is non-empty, so mean cannot fail
	sum.AveragePositive, _ = mean(records, dataset.FieldPositiveTests)
	sum.AverageTotal, _ = mean(records, dataset.FieldTotalTests)
	return sum
}

func extremeOf(records []dataset.Record, f dataset.Field, better func(v, best int) bool) Extreme {
	e := Extreme{Value: f.Value(records[0])}
	for _, r := range records[1:] {
		if v := f.Value(r); better(v, e.Value) {
			e.Value = v
		}
	}
	for _, r := range records {
		if f.Value(r) == e.Value {
			e.Dates = append(e.Dates, r.Date)
		}
	}
	return e
}

func sortByDate(records []dataset.Record) {
	slices.SortFunc(records, func(a, b dataset.Record) int { return a.Date.Compare(b.Date) })
}
