package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/covidstat-cli/internal/analysis"
	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/utils"
)

// FieldExtremes holds the highest and lowest day of one count column.
type FieldExtremes struct {
	Field   dataset.Field           `json:"-" yaml:"-"`
	Name    string                  `json:"field" yaml:"field"`
	Highest Section[dataset.Record] `json:"highest" yaml:"highest"`
	Lowest  Section[dataset.Record] `json:"lowest" yaml:"lowest"`
}

// Summary is the structured result of one report run.
type Summary struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Settings    Settings  `json:"settings" yaml:"settings"`
	Records     int       `json:"records" yaml:"records"`
	Rejected    int       `json:"rejected_lines" yaml:"rejected_lines"`

	Extremes          []FieldExtremes                  `json:"extremes" yaml:"extremes"`
	FirstPositiveDay  Section[time.Time]               `json:"first_positive_day" yaml:"first_positive_day"`
	AveragePositive   Section[float64]                 `json:"average_positive" yaml:"average_positive"`
	AverageTotal      Section[float64]                 `json:"average_total" yaml:"average_total"`
	PositivityRate    Section[float64]                 `json:"positivity_rate" yaml:"positivity_rate"`
	HighestPositivity Section[analysis.Positivity]     `json:"highest_positivity" yaml:"highest_positivity"`
	DaysAbove         Section[int]                     `json:"days_above_upper_threshold" yaml:"days_above_upper_threshold"`
	DaysBelow         Section[int]                     `json:"days_below_lower_threshold" yaml:"days_below_lower_threshold"`
	Histogram         Section[[]analysis.Bin]          `json:"histogram" yaml:"histogram"`
	Monthly           Section[[]analysis.MonthSummary] `json:"monthly" yaml:"monthly"`
}

// JSON renders the summary as indented JSON.
func (s *Summary) JSON() ([]byte, error) { return utils.PrettyJSON(s) }

// YAML renders the summary as YAML.
func (s *Summary) YAML() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Render returns the summary in the named format: text, json or yaml.
func (s *Summary) Render(format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return []byte(s.Text()), nil
	case "json":
		return s.JSON()
	case "yaml", "yml":
		return s.YAML()
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// Text renders the human readable report.
func (s *Summary) Text() string {
	var b strings.Builder
	region := s.Settings.RegionFilter
	if region == "" {
		region = "all regions"
	}
	b.WriteString("[COVID TEST SUMMARY]\n")
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Region: %s\n", region)
	fmt.Fprintf(&b, "Records: %s\n", humanize.Comma(int64(s.Records)))
	if s.Rejected > 0 {
		fmt.Fprintf(&b, "Rejected lines: %s\n", humanize.Comma(int64(s.Rejected)))
	}

	b.WriteString("\n[DAILY EXTREMES]\n")
	for _, e := range s.Extremes {
		value := func(r dataset.Record) string {
			return fmt.Sprintf("%s on %s", formatInt(e.Field.Value(r)), formatDate(r.Date))
		}
		line(&b, "Highest "+e.Name, e.Highest, value)
		line(&b, "Lowest "+e.Name, e.Lowest, value)
	}

	b.WriteString("\n[SINCE FIRST POSITIVE TEST]\n")
	line(&b, "First positive test", s.FirstPositiveDay, formatDate)
	line(&b, "Average daily positive tests", s.AveragePositive, formatFloat)
	line(&b, "Average daily total tests", s.AverageTotal, formatFloat)
	line(&b, "Overall positivity rate", s.PositivityRate, formatPercent)
	line(&b, "Highest daily positivity", s.HighestPositivity, func(p analysis.Positivity) string {
		return fmt.Sprintf("%s on %s", formatPercent(p.Ratio), formatDate(p.Record.Date))
	})
	line(&b, "Days with more than "+humanize.Comma(int64(s.Settings.UpperPositiveThreshold))+" positive tests", s.DaysAbove, formatInt)
	line(&b, "Days with fewer than "+humanize.Comma(int64(s.Settings.LowerPositiveThreshold))+" positive tests", s.DaysBelow, formatInt)

	b.WriteString("\n[POSITIVE TESTS HISTOGRAM]\n")
	switch {
	case !s.Histogram.OK():
		fmt.Fprintf(&b, "%s\n", unavailable(s.Histogram.Err))
	case len(s.Histogram.Value) == 0:
		b.WriteString("no values\n")
	default:
		for _, bin := range s.Histogram.Value {
			fmt.Fprintf(&b, "%s: %s\n", bin.Label(), humanize.Comma(int64(bin.Count)))
		}
	}

	b.WriteString("\n[MONTHLY BREAKDOWN]\n")
	if !s.Monthly.OK() {
		fmt.Fprintf(&b, "%s\n", unavailable(s.Monthly.Err))
	}
	for _, m := range s.Monthly.Value {
		writeMonth(&b, m)
	}
	return b.String()
}

func writeMonth(b *strings.Builder, m analysis.MonthSummary) {
	days := "days"
	if m.Days == 1 {
		days = "day"
	}
	fmt.Fprintf(b, "%s: %d %s of data\n", m.Title(), m.Days, days)
	if m.IsGap() {
		return
	}
	extreme := func(label string, e analysis.Extreme) {
		fmt.Fprintf(b, "  %s: %s on the %s\n", label, humanize.Comma(int64(e.Value)), ordinalDays(e.Dates))
	}
	extreme("Highest positive tests", m.HighestPositive)
	extreme("Lowest positive tests", m.LowestPositive)
	extreme("Highest total tests", m.HighestTotal)
	extreme("Lowest total tests", m.LowestTotal)
	fmt.Fprintf(b, "  Average positive tests: %s\n", formatFloat(m.AveragePositive))
	fmt.Fprintf(b, "  Average total tests: %s\n", formatFloat(m.AverageTotal))
}

func line[T any](b *strings.Builder, label string, s Section[T], format func(T) string) {
	if !s.OK() {
		fmt.Fprintf(b, "%s: %s\n", label, unavailable(s.Err))
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, format(s.Value))
}

func unavailable(err error) string { return fmt.Sprintf("not available (%v)", err) }

func formatDate(t time.Time) string { return t.Format(dataset.DateLayout) }

func formatInt(n int) string { return humanize.Comma(int64(n)) }

func formatFloat(f float64) string { return humanize.FormatFloat("#,###.##", f) }

func formatPercent(ratio float64) string { return fmt.Sprintf("%.2f%%", ratio*100) }

// ordinalDays renders tie dates as "1st", "1st and 5th" or "1st, 5th and 9th".
func ordinalDays(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = humanize.Ordinal(d.Day())
	}
	if len(parts) <= 1 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
