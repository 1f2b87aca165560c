package report_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/merge"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
	"github.com/KaramelBytes/covidstat-cli/internal/report"
)

const header = "region,date,positiveTests,negativeTests,deaths,hospitalizations"

func csv(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(append([]string{header}, lines...), "\n"))
}

func strPtr(s string) *string { return &s }

func TestParseSettingsFallsBack(t *testing.T) {
	def := report.DefaultSettings()

	s := report.ParseSettings(report.RawSettings{}, def)
	assert.Equal(t, def, s)

	s = report.ParseSettings(report.RawSettings{
		RegionFilter:           strPtr(" fl "),
		UpperPositiveThreshold: "3000",
		LowerPositiveThreshold: "abc",
		HistogramBinWidth:      "0",
	}, def)
	assert.Equal(t, "fl", s.RegionFilter)
	assert.Equal(t, 3000, s.UpperPositiveThreshold)
	assert.Equal(t, 1000, s.LowerPositiveThreshold)
	assert.Equal(t, 500, s.HistogramBinWidth)

	s = report.ParseSettings(report.RawSettings{
		RegionFilter:           strPtr(""),
		UpperPositiveThreshold: "-4",
		HistogramBinWidth:      " 250 ",
	}, def)
	assert.Empty(t, s.RegionFilter, "empty filter means all regions")
	assert.Equal(t, 2500, s.UpperPositiveThreshold)
	assert.Equal(t, 250, s.HistogramBinWidth)
}

func TestSummaryEndToEnd(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv(
		"GA,2020-03-01,5,95,0,1",
		"GA,2020-03-02,abc,90,0,2",
		"GA,2020-03-03,8,92,1,3",
	)))
	assert.Equal(t, 2, a.Collection().Len())
	assert.Equal(t, 1, a.ErrorLog().Len())
	assert.Contains(t, a.Errors(), "line 3:")

	settings := report.DefaultSettings()
	settings.UpperPositiveThreshold = 6
	settings.LowerPositiveThreshold = 6
	settings.HistogramBinWidth = 5
	sum, err := a.Summary(context.Background(), settings)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 1, sum.Rejected)
	require.True(t, sum.FirstPositiveDay.OK())
	assert.Equal(t, dataset.Date(2020, time.March, 1), sum.FirstPositiveDay.Value)
	assert.InDelta(t, 6.5, sum.AveragePositive.Value, 1e-9)
	assert.InDelta(t, 100.0, sum.AverageTotal.Value, 1e-9)
	assert.InDelta(t, 0.065, sum.PositivityRate.Value, 1e-9)
	assert.Equal(t, 1, sum.DaysAbove.Value)
	assert.Equal(t, 1, sum.DaysBelow.Value)
	require.Len(t, sum.Histogram.Value, 2)
	assert.Zero(t, sum.Histogram.Value[0].Count)
	assert.Equal(t, 2, sum.Histogram.Value[1].Count)

	require.Len(t, sum.Extremes, len(dataset.Fields))
	assert.Equal(t, "positive tests", sum.Extremes[0].Name)
	assert.Equal(t, 8, sum.Extremes[0].Highest.Value.PositiveTests)

	text := sum.Text()
	assert.Contains(t, text, "Records: 2")
	assert.Contains(t, text, "Highest positive tests: 8 on 2020-03-03")
	assert.Contains(t, text, "Overall positivity rate: 6.50%")
	assert.Contains(t, text, "Highest daily positivity: 8.00% on 2020-03-03")
	assert.Contains(t, text, "Average daily positive tests: 6.50")
	assert.Contains(t, text, "0-4: 0")
	assert.Contains(t, text, "5-9: 2")
	assert.Contains(t, text, "March 2020: 2 days of data")
	assert.Contains(t, text, "Highest positive tests: 8 on the 3rd")
}

func TestSummaryFiltersRegionWithoutMutating(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv(
		"GA,2020-03-01,5,95,0,1",
		"FL,2020-03-02,9,91,0,1",
	)))

	s := report.DefaultSettings()
	sum, err := a.Summary(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Records)

	s.RegionFilter = ""
	sum, err = a.Summary(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Records)
	assert.Contains(t, sum.Text(), "Region: all regions")
	assert.Equal(t, 2, a.Collection().Len())
}

func TestSummaryFailedSectionsDoNotBlankReport(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv(
		"GA,2020-03-01,0,95,0,1",
		"GA,2020-03-02,0,90,2,7",
	)))
	sum, err := a.Summary(context.Background(), report.DefaultSettings())
	require.NoError(t, err)

	assert.ErrorIs(t, sum.FirstPositiveDay.Err, dataset.ErrNoPositiveData)
	assert.ErrorIs(t, sum.Histogram.Err, dataset.ErrNoPositiveData)
	assert.ErrorIs(t, sum.Monthly.Err, dataset.ErrNoPositiveData)
	assert.True(t, sum.Extremes[3].Highest.OK())
	assert.Equal(t, 7, sum.Extremes[4].Highest.Value.Hospitalizations)

	text := sum.Text()
	assert.Contains(t, text, "First positive test: not available (no positive tests recorded)")
	assert.Contains(t, text, "Highest hospitalizations: 7 on 2020-03-02")

	b, err := sum.JSON()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, map[string]any{"error": "no positive tests recorded"}, doc["first_positive_day"])
}

func TestSummaryEmptyDataset(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv("GA,bad,1,1,1,1")))
	sum, err := a.Summary(context.Background(), report.DefaultSettings())
	require.NoError(t, err)
	assert.Zero(t, sum.Records)
	for _, e := range sum.Extremes {
		assert.ErrorIs(t, e.Highest.Err, dataset.ErrEmptyCollection)
	}
	assert.Contains(t, sum.Text(), "not available (no records)")
}

func TestSummaryRendersGapMonths(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv(
		"GA,2020-03-15,4,10,0,0",
		"GA,2020-06-02,1,1,0,0",
	)))
	sum, err := a.Summary(context.Background(), report.DefaultSettings())
	require.NoError(t, err)

	text := sum.Text()
	assert.Contains(t, text, "April 2020: 0 days of data")
	assert.Contains(t, text, "May 2020: 0 days of data")
	assert.Contains(t, text, "June 2020: 1 day of data")

	out, err := sum.Render("yaml")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	monthly := doc["monthly"].(map[string]any)["value"].([]any)
	assert.Len(t, monthly, 4)

	_, err = sum.Render("xml")
	assert.Error(t, err)
}

func TestSummaryCancelled(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv("GA,2020-03-01,5,95,0,1")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Summary(ctx, report.DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssemblerMerge(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)

	_, err := a.BeginMerge(csv())
	assert.ErrorIs(t, err, report.ErrNothingLoaded)
	_, err = a.Summary(context.Background(), report.DefaultSettings())
	assert.ErrorIs(t, err, dataset.ErrInvalidArgument)

	require.NoError(t, a.Load(csv("GA,2020-03-01,1,9,0,0")))
	dups, err := a.BeginMerge(csv(
		"GA,2020-03-01,2,8,0,0",
		"GA,2020-03-02,3,7,0,0",
		"GA,2020-03-03,x,7,0,0",
	))
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, 2, a.Collection().Len(), "new dates are added before resolution")
	assert.Equal(t, 1, a.ErrorLog().Len())
	assert.Len(t, a.Duplicates(), 1)

	err = a.Resolve([]merge.Decision{{Date: dataset.Date(2020, time.April, 1), KeepIncoming: true}})
	assert.ErrorIs(t, err, dataset.ErrInvalidArgument)

	require.NoError(t, a.Resolve([]merge.Decision{{Date: dups[0].Date(), KeepIncoming: true}}))
	assert.Empty(t, a.Duplicates())
	r, ok := a.Collection().Get(dataset.Date(2020, time.March, 1))
	require.True(t, ok)
	assert.Equal(t, 2, r.PositiveTests)

	assert.ErrorIs(t, a.Resolve(nil), dataset.ErrInvalidArgument, "merge finished")

	a.Reset()
	assert.False(t, a.Loaded())
	assert.Nil(t, a.Collection())
	assert.Empty(t, a.Errors())
}

func TestSummaryOversizedHistogramOnlyBlanksHistogram(t *testing.T) {
	a := report.NewAssembler(parser.DefaultOptions(), nil)
	require.NoError(t, a.Load(csv(
		"GA,2020-03-01,9223372036854775807,0,0,0,9223372036854775807",
		"GA,2020-03-02,5,95,0,1",
	)))
	require.Zero(t, a.ErrorLog().Len(), a.Errors())

	settings := report.DefaultSettings()
	settings.HistogramBinWidth = 1
	sum, err := a.Summary(context.Background(), settings)
	require.NoError(t, err)

	assert.ErrorIs(t, sum.Histogram.Err, dataset.ErrInvalidArgument)
	assert.True(t, sum.FirstPositiveDay.OK())
	assert.True(t, sum.Monthly.OK())
	assert.Equal(t, 1, sum.DaysAbove.Value)
	assert.Contains(t, sum.Text(), "[POSITIVE TESTS HISTOGRAM]\nnot available (histogram:")
}
