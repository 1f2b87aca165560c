package parser_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
)

const header = "region,date,positiveTests,negativeTests,deaths,hospitalizations"

func parse(t *testing.T, lines ...string) (*dataset.Collection, *parser.ErrorLog) {
	t.Helper()
	c, log, err := parser.ParseString(strings.Join(lines, "\n"), parser.DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, log)
	return c, log
}

func TestParseHeaderTwoValidOneMalformed(t *testing.T) {
	c, log := parse(t,
		header,
		"GA,2020-03-01,5,95,0,1",
		"GA,2020-03-02,abc,90,0,2",
		"GA,2020-03-03,8,92,1,3",
	)

	assert.Equal(t, 2, c.Len())
	require.Equal(t, 1, log.Len())
	e := log.Entries()[0]
	assert.Equal(t, 3, e.Line)
	assert.Equal(t, "GA,2020-03-02,abc,90,0,2", e.Raw)
	assert.Contains(t, e.Reason, "positive tests")
	assert.Contains(t, log.String(), "line 3:")
}

func TestParseDerivesTotalTests(t *testing.T) {
	c, log := parse(t, header, "ga,2020-03-01,5,95,0,1")
	require.Zero(t, log.Len())

	r, ok := c.Get(dataset.Date(2020, time.March, 1))
	require.True(t, ok)
	assert.Equal(t, "GA", r.Region)
	assert.Equal(t, 100, r.TotalTests)
}

func TestParseSuppliedTotalWins(t *testing.T) {
	c, log := parse(t,
		"GA,2020-03-01,5,95,0,1,120",
		"GA,2020-03-02,5,95,0,1,",
	)
	require.Zero(t, log.Len())

	r, _ := c.Get(dataset.Date(2020, time.March, 1))
	assert.Equal(t, 120, r.TotalTests, "supplied total is kept even when inconsistent")
	r, _ = c.Get(dataset.Date(2020, time.March, 2))
	assert.Equal(t, 100, r.TotalTests, "empty total column is derived")
}

func TestParseRejectsTotalBelowPositive(t *testing.T) {
	c, log := parse(t, "GA,2020-03-01,50,10,0,1,40")
	assert.Zero(t, c.Len())
	require.Equal(t, 1, log.Len())
	assert.Contains(t, log.Entries()[0].Reason, "less than positive")
}

func TestParseMalformedLines(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"too few fields", "GA,2020-03-01,5,95,0", "expected 6 or 7 fields, got 5"},
		{"too many fields", "GA,2020-03-01,5,95,0,1,100,7", "got 8"},
		{"missing region", " ,2020-03-01,5,95,0,1", "missing region"},
		{"bad date", "GA,2020-13-45,5,95,0,1", "invalid date"},
		{"negative count", "GA,2020-03-01,5,-1,0,1", "negative"},
		{"empty count", "GA,2020-03-01,5,95,,1", "missing deaths"},
		{"decimal count", "GA,2020-03-01,5,95,0,1.5", "hospitalizations"},
		{"broken quote", `GA,"2020-03-01,5,95,0,1`, "unreadable line"},
		{"header of wrong width", "region,date,positive", "expected 6 or 7 fields"},
		{"derived total overflows", "GA,2020-03-01,9223372036854775807,1,0,0", "total tests out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, log := parse(t, header, tt.line)
			assert.Zero(t, c.Len())
			require.Equal(t, 1, log.Len())
			e := log.Entries()[0]
			assert.Equal(t, 2, e.Line)
			assert.Contains(t, e.Reason, tt.reason)
		})
	}
}

func TestParseDuplicateWithinFileKeepsFirst(t *testing.T) {
	c, log := parse(t,
		header,
		"GA,2020-03-01,5,95,0,1",
		"GA,2020-03-02,6,94,0,1",
		"FL,2020-03-01,99,1,0,1",
	)

	assert.Equal(t, 2, c.Len())
	r, _ := c.Get(dataset.Date(2020, time.March, 1))
	assert.Equal(t, 5, r.PositiveTests)
	assert.Equal(t, "GA", r.Region)

	require.Equal(t, 1, log.Len())
	e := log.Entries()[0]
	assert.Equal(t, 4, e.Line)
	assert.Contains(t, e.Reason, "duplicate date 2020-03-01 (kept line 2)")
}

func TestParseSkipsBlankAndHeaderLines(t *testing.T) {
	c, log := parse(t,
		"\ufeff"+header,
		"",
		"GA,2020-03-01,5,95,0,1",
		"   ",
		"State,Date,Positive,Negative,Death,Hospitalized,Total",
		"GA,2020-03-02,5,95,0,1",
	)
	assert.Equal(t, 2, c.Len())
	assert.Zero(t, log.Len())
}

func TestParseDateLayouts(t *testing.T) {
	c, log := parse(t,
		"GA,20200301,1,0,0,0",
		"GA,3/2/2020,1,0,0,0",
		"GA,2020-03-03,1,0,0,0",
	)
	require.Zero(t, log.Len(), log.String())
	assert.Equal(t, 3, c.Len())

	opt := parser.Options{DateLayouts: []string{"02.01.2006"}}
	c, log, err := parser.ParseString("GA,04.03.2020,1,0,0,0\nGA,2020-03-05,1,0,0,0", opt)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, log.Len())
	assert.True(t, c.Contains(dataset.Date(2020, time.March, 4)))
}

// Every non-header line is either a record or exactly one log entry.
func TestParseAccountsForEveryLine(t *testing.T) {
	lines := []string{
		header,
		"GA,2020-03-01,5,95,0,1",
		"GA,2020-03-02,x,95,0,1",
		"GA,2020-03-03,5,95,0,1",
		"GA,2020-03-04,5,95",
		"GA,2020-03-05,5,95,0,1",
		"GA,2020-03-03,7,95,0,1",
	}
	c, log := parse(t, lines...)
	assert.Equal(t, len(lines)-1, c.Len()+log.Len())
	assert.Equal(t, 3, c.Len())

	got := []int{}
	for _, e := range log.Entries() {
		got = append(got, e.Line)
	}
	assert.Equal(t, []int{3, 5, 7}, got, "log keeps input order")
}

func TestParseOverlongLineIsRejected(t *testing.T) {
	long := "GA,2020-03-02," + strings.Repeat("9", 2<<20)
	c, log := parse(t,
		"GA,2020-03-01,5,95,0,1",
		long,
		"GA,2020-03-03,8,92,1,3",
	)

	assert.Equal(t, 2, c.Len())
	require.Equal(t, 1, log.Len())
	e := log.Entries()[0]
	assert.Equal(t, 2, e.Line)
	assert.Contains(t, e.Reason, "line longer than")
	assert.Less(t, len(e.Raw), 1024)
	assert.True(t, strings.HasPrefix(e.Raw, "GA,2020-03-02,999"))
	assert.True(t, c.Contains(dataset.Date(2020, time.March, 3)))
}

func TestParseLineAtLimitIsRead(t *testing.T) {
	line := "GA,2020-03-01,5,95,0,1"
	line += strings.Repeat(" ", parser.MaxLineBytes-len(line))
	c, log := parse(t, line, "GA,2020-03-02,5,95,0,1")
	assert.Equal(t, 2, c.Len())
	assert.Zero(t, log.Len(), log.String())
}

func TestParseNilReader(t *testing.T) {
	_, _, err := parser.Parse(nil, parser.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrInvalidArgument))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestParseReadFailure(t *testing.T) {
	_, _, err := parser.Parse(failingReader{}, parser.DefaultOptions())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestNilErrorLog(t *testing.T) {
	var log *parser.ErrorLog
	assert.Zero(t, log.Len())
	assert.Empty(t, log.String())
	assert.Nil(t, log.Entries())
}
