package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// Column layout of a record line. The trailing total column is optional.
const (
	colRegion = iota
	colDate
	colPositive
	colNegative
	colDeaths
	colHospitalizations
	colTotal

	minFields = colTotal
	maxFields = colTotal + 1
)

// MaxLineBytes is the longest line Parse reads. Longer lines are rejected and
// their Raw text is cut to rawPreviewBytes.
const (
	MaxLineBytes    = 1 << 20
	rawPreviewBytes = 256
)

// DefaultDateLayouts are tried in order when a date column is parsed.
var DefaultDateLayouts = []string{"2006-01-02", "20060102", "1/2/2006"}

// Options controls record parsing.
type Options struct {
	// DateLayouts lists accepted date layouts; empty means DefaultDateLayouts.
	DateLayouts []string
	// Logger receives a debug entry per rejected line. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the parser defaults.
func DefaultOptions() Options {
	return Options{DateLayouts: DefaultDateLayouts}
}

// ParseString is Parse over an in-memory string.
func ParseString(text string, opt Options) (*dataset.Collection, *ErrorLog, error) {
	return Parse(strings.NewReader(text), opt)
}

// Parse reads record lines from r. Malformed lines never abort the parse:
// each one is recorded in the returned ErrorLog and skipped. When two lines
// carry the same date the first one is kept and the later one is logged.
//
// Parse fails only when r is nil or cannot be read.
func Parse(r io.Reader, opt Options) (*dataset.Collection, *ErrorLog, error) {
	if r == nil {
		return nil, nil, fmt.Errorf("parse records: nil input: %w", dataset.ErrInvalidArgument)
	}
	layouts := opt.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	records := &dataset.Collection{}
	errs := &ErrorLog{}
	keptOn := map[string]int{}

	reject := func(line int, raw, reason string) {
		e := errs.add(line, raw, reason)
		log.Debug("rejected line", zap.Int("line", e.Line), zap.String("reason", e.Reason))
	}

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, long, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read input: %w", err)
		}
		lineNo++
		if long {
			reject(lineNo, raw[:rawPreviewBytes]+"...", fmt.Sprintf("line longer than %d bytes", MaxLineBytes))
			continue
		}
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		fields, err := splitLine(text)
		if err != nil {
			reject(lineNo, raw, fmt.Sprintf("unreadable line: %v", err))
			continue
		}
		if isHeader(fields) {
			continue
		}
		rec, reason := parseFields(fields, layouts)
		if reason != "" {
			reject(lineNo, raw, reason)
			continue
		}
		key := rec.DateKey()
		if first, ok := keptOn[key]; ok {
			reject(lineNo, raw, fmt.Sprintf("duplicate date %s (kept line %d)", key, first))
			continue
		}
		if err := records.Add(rec); err != nil {
			reject(lineNo, raw, err.Error())
			continue
		}
		keptOn[key] = lineNo
	}
	log.Debug("parsed input",
		zap.Int("lines", lineNo),
		zap.Int("records", records.Len()),
		zap.Int("rejected", errs.Len()))
	return records, errs, nil
}

// readLine returns the next line without its terminator. A line longer than
// MaxLineBytes is drained to its end and returned cut to MaxLineBytes with
// long set. io.EOF is returned only when no line is left.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	long, started := false, false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				return string(buf), long, nil
			}
			return "", false, err
		}
		started = true
		if !long {
			if room := MaxLineBytes - len(buf); len(chunk) > room {
				buf = append(buf, chunk[:room]...)
				long = true
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), long, nil
		}
	}
}

func splitLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.Read()
}

// isHeader matches "region|state, date, ..." with 6 or 7 columns.
func isHeader(fields []string) bool {
	if len(fields) < minFields || len(fields) > maxFields {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(fields[colRegion]))
	second := strings.ToLower(strings.TrimSpace(fields[colDate]))
	return (first == "region" || first == "state") && second == "date"
}

// parseFields converts one split line. A non-empty reason means the line is rejected.
func parseFields(fields []string, layouts []string) (dataset.Record, string) {
	if len(fields) < minFields || len(fields) > maxFields {
		return dataset.Record{}, fmt.Sprintf("expected %d or %d fields, got %d", minFields, maxFields, len(fields))
	}
	region := strings.ToUpper(strings.TrimSpace(fields[colRegion]))
	if region == "" {
		return dataset.Record{}, "missing region"
	}
	date, ok := parseDate(strings.TrimSpace(fields[colDate]), layouts)
	if !ok {
		return dataset.Record{}, fmt.Sprintf("invalid date %q", strings.TrimSpace(fields[colDate]))
	}

	rec := dataset.Record{Region: region, Date: date}
	counts := []struct {
		col  int
		name string
		dst  *int
	}{
		{colPositive, "positive tests", &rec.PositiveTests},
		{colNegative, "negative tests", &rec.NegativeTests},
		{colDeaths, "deaths", &rec.Deaths},
		{colHospitalizations, "hospitalizations", &rec.Hospitalizations},
	}
	for _, c := range counts {
		v, reason := parseCount(c.name, fields[c.col])
		if reason != "" {
			return dataset.Record{}, reason
		}
		*c.dst = v
	}

	if rec.NegativeTests > math.MaxInt-rec.PositiveTests {
		return dataset.Record{}, "total tests out of range: positive plus negative overflows"
	}
	rec.TotalTests = rec.PositiveTests + rec.NegativeTests
	if len(fields) == maxFields && strings.TrimSpace(fields[colTotal]) != "" {
		total, reason := parseCount("total tests", fields[colTotal])
		if reason != "" {
			return dataset.Record{}, reason
		}
		// A supplied total wins over positive+negative, but it cannot be
		// smaller than the positive count.
		if total < rec.PositiveTests {
			return dataset.Record{}, fmt.Sprintf("total tests %d less than positive tests %d", total, rec.PositiveTests)
		}
		rec.TotalTests = total
	}
	return rec, ""
}

func parseCount(name, s string) (int, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Sprintf("missing %s", name)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("invalid %s %q: not an integer", name, s)
	}
	if v < 0 {
		return 0, fmt.Sprintf("invalid %s %d: negative", name, v)
	}
	return v, ""
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return dataset.Day(t), true
		}
	}
	return time.Time{}, false
}
