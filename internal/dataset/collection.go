package dataset

import (
	"slices"
	"strings"
	"time"
)

// Collection is an ordered set of records keyed by date. Records are kept in
// ascending date order and no two records share a date.
//
// A Collection is not safe for concurrent mutation. Concurrent readers are
// fine as long as nobody calls Add or Replace.
type Collection struct {
	records []Record
}

// NewCollection returns a collection holding records. It fails with a
// *DuplicateKeyError if two records share a date.
func NewCollection(records ...Record) (*Collection, error) {
	c := &Collection{records: make([]Record, 0, len(records))}
	for _, r := range records {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) search(date time.Time) (int, bool) {
	return slices.BinarySearchFunc(c.records, Day(date), func(r Record, t time.Time) int {
		return r.Date.Compare(t)
	})
}

// Add inserts r at its date position. If a record with the same date already
// exists the collection is unchanged and a *DuplicateKeyError is returned.
func (c *Collection) Add(r Record) error {
	r.Date = Day(r.Date)
	i, found := c.search(r.Date)
	if found {
		return &DuplicateKeyError{Date: r.Date}
	}
	c.records = slices.Insert(c.records, i, r)
	return nil
}

// Replace stores r, removing any record that has the same date.
func (c *Collection) Replace(r Record) {
	r.Date = Day(r.Date)
	i, found := c.search(r.Date)
	if found {
		c.records[i] = r
		return
	}
	c.records = slices.Insert(c.records, i, r)
}

// Get returns the record stored for date.
func (c *Collection) Get(date time.Time) (Record, bool) {
	i, found := c.search(date)
	if !found {
		return Record{}, false
	}
	return c.records[i], true
}

// Contains reports whether a record exists for date.
func (c *Collection) Contains(date time.Time) bool {
	_, found := c.search(date)
	return found
}

// Filter returns a new collection with the records matching keep. The
// receiver is not modified.
func (c *Collection) Filter(keep func(Record) bool) *Collection {
	out := &Collection{}
	for _, r := range c.records {
		if keep(r) {
			out.records = append(out.records, r)
		}
	}
	return out
}

// FilterRegion keeps records whose region equals region, ignoring case. An
// empty region keeps everything.
func (c *Collection) FilterRegion(region string) *Collection {
	region = strings.TrimSpace(region)
	if region == "" {
		return c.Clone()
	}
	return c.Filter(func(r Record) bool {
		return strings.EqualFold(r.Region, region)
	})
}

// Clone returns an independent copy.
func (c *Collection) Clone() *Collection {
	return &Collection{records: slices.Clone(c.records)}
}

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// IsEmpty reports whether the collection has no records.
func (c *Collection) IsEmpty() bool { return len(c.records) == 0 }

// Records returns a copy of the records in ascending date order.
func (c *Collection) Records() []Record { return slices.Clone(c.records) }

// First returns the earliest record.
func (c *Collection) First() (Record, bool) {
	if len(c.records) == 0 {
		return Record{}, false
	}
	return c.records[0], true
}

// Last returns the latest record.
func (c *Collection) Last() (Record, bool) {
	if len(c.records) == 0 {
		return Record{}, false
	}
	return c.records[len(c.records)-1], true
}
