package dataset

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidArgument reports a nil or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateKey reports an Add for a date that is already stored.
	ErrDuplicateKey = errors.New("duplicate date")
	// ErrEmptyCollection reports a statistic requested over zero records.
	ErrEmptyCollection = errors.New("no records")
	// ErrNoPositiveData reports that no record has a positive test.
	ErrNoPositiveData = errors.New("no positive tests recorded")
	// ErrUnavailable reports a ratio whose denominator is zero.
	ErrUnavailable = errors.New("not available")
)

// DuplicateKeyError is returned by Collection.Add when a record with the same
// date already exists. It matches ErrDuplicateKey with errors.Is.
type DuplicateKeyError struct {
	Date time.Time
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate date %s", e.Date.Format(DateLayout))
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }
