package dataset

import (
	"fmt"
	"time"
)

// DateLayout is the canonical layout used when a date is rendered or keyed.
const DateLayout = "2006-01-02"

// Record holds one region-day of test and outcome counts.
type Record struct {
	Region           string    `json:"region" yaml:"region"`
	Date             time.Time `json:"date" yaml:"date"`
	PositiveTests    int       `json:"positive_tests" yaml:"positive_tests"`
	NegativeTests    int       `json:"negative_tests" yaml:"negative_tests"`
	Deaths           int       `json:"deaths" yaml:"deaths"`
	Hospitalizations int       `json:"hospitalizations" yaml:"hospitalizations"`
	TotalTests       int       `json:"total_tests" yaml:"total_tests"`
}

// Day truncates t to midnight UTC of its calendar date. Every date stored in
// a Record goes through Day so that equal calendar days compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateKey returns the deduplication key of the record.
func (r Record) DateKey() string { return r.Date.Format(DateLayout) }

func (r Record) String() string {
	return fmt.Sprintf("%s %s: positive=%d negative=%d total=%d deaths=%d hospitalizations=%d",
		r.Region, r.DateKey(), r.PositiveTests, r.NegativeTests, r.TotalTests, r.Deaths, r.Hospitalizations)
}

// Field names one of the count columns of a Record.
type Field int

const (
	FieldPositiveTests Field = iota
	FieldNegativeTests
	FieldTotalTests
	FieldDeaths
	FieldHospitalizations
)

// Fields lists every count column in report order.
var Fields = []Field{FieldPositiveTests, FieldNegativeTests, FieldTotalTests, FieldDeaths, FieldHospitalizations}

// Value extracts the field from r.
func (f Field) Value(r Record) int {
	switch f {
	case FieldPositiveTests:
		return r.PositiveTests
	case FieldNegativeTests:
		return r.NegativeTests
	case FieldTotalTests:
		return r.TotalTests
	case FieldDeaths:
		return r.Deaths
	case FieldHospitalizations:
		return r.Hospitalizations
	default:
		panic(fmt.Sprintf("dataset: unknown field %d", int(f)))
	}
}

func (f Field) String() string {
	switch f {
	case FieldPositiveTests:
		return "positive tests"
	case FieldNegativeTests:
		return "negative tests"
	case FieldTotalTests:
		return "total tests"
	case FieldDeaths:
		return "deaths"
	case FieldHospitalizations:
		return "hospitalizations"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}
