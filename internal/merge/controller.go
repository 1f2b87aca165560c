package merge

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// Duplicate pairs an incoming record with the base record sharing its date.
type Duplicate struct {
	Base     dataset.Record `json:"base" yaml:"base"`
	Incoming dataset.Record `json:"incoming" yaml:"incoming"`
}

// Date is the colliding date key.
func (d Duplicate) Date() time.Time { return d.Incoming.Date }

// Decision adjudicates one duplicate.
type Decision struct {
	Date         time.Time
	KeepIncoming bool
}

// Controller reconciles an incoming collection with a base collection.
// Incoming records with new dates are added without adjudication; colliding
// ones are held until the caller resolves them.
type Controller struct {
	working     *dataset.Collection
	incoming    *dataset.Collection
	partitioned bool
	duplicates  []Duplicate
	resolved    map[string]bool // date key -> resolved
}

// New prepares a merge of incoming into a copy of base. Neither collection is
// modified.
func New(base, incoming *dataset.Collection) (*Controller, error) {
	if base == nil {
		return nil, fmt.Errorf("merge: nil base collection: %w", dataset.ErrInvalidArgument)
	}
	if incoming == nil {
		return nil, fmt.Errorf("merge: nil incoming collection: %w", dataset.ErrInvalidArgument)
	}
	return &Controller{
		working:  base.Clone(),
		incoming: incoming.Clone(),
		resolved: map[string]bool{},
	}, nil
}

// Partition adds every incoming record whose date is absent from the base and
// holds the colliding ones as duplicates. It returns the number of records
// added. Only the first call does any work.
func (c *Controller) Partition() int {
	if c.partitioned {
		return 0
	}
	c.partitioned = true
	added := 0
	for _, r := range c.incoming.Records() {
		if base, ok := c.working.Get(r.Date); ok {
			c.duplicates = append(c.duplicates, Duplicate{Base: base, Incoming: r})
			continue
		}
		// Incoming is duplicate-free, so Add cannot collide with an earlier
		// incoming record.
		if err := c.working.Add(r); err == nil {
			added++
		}
	}
	return added
}

// Duplicates returns every colliding pair found by Partition, in ascending
// date order, regardless of resolution state.
func (c *Controller) Duplicates() []Duplicate {
	c.Partition()
	out := make([]Duplicate, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

// Pending returns the duplicates not yet resolved.
func (c *Controller) Pending() []Duplicate {
	c.Partition()
	var out []Duplicate
	for _, d := range c.duplicates {
		if !c.resolved[d.Incoming.DateKey()] {
			out = append(out, d)
		}
	}
	return out
}

// Resolve settles the duplicate for incoming's date. keepIncoming replaces
// the base record; otherwise the base record stays. Each duplicate may be
// resolved once.
func (c *Controller) Resolve(incoming dataset.Record, keepIncoming bool) error {
	d, err := c.pending(incoming.Date)
	if err != nil {
		return err
	}
	c.apply(d, keepIncoming)
	return nil
}

// Apply resolves a batch of decisions atomically: if any decision names a
// date that is not a pending duplicate, or names a date twice, nothing is
// applied.
func (c *Controller) Apply(decisions []Decision) error {
	seen := make(map[string]bool, len(decisions))
	dups := make([]Duplicate, 0, len(decisions))
	for _, dec := range decisions {
		key := dataset.Day(dec.Date).Format(dataset.DateLayout)
		if seen[key] {
			return fmt.Errorf("merge: date %s decided twice: %w", key, dataset.ErrInvalidArgument)
		}
		seen[key] = true
		d, err := c.pending(dec.Date)
		if err != nil {
			return err
		}
		dups = append(dups, d)
	}
	for i, d := range dups {
		c.apply(d, decisions[i].KeepIncoming)
	}
	return nil
}

// Merged returns a copy of the working collection: the base plus every new
// record and every duplicate resolved so far in favour of the incoming side.
func (c *Controller) Merged() *dataset.Collection {
	c.Partition()
	return c.working.Clone()
}

func (c *Controller) pending(date time.Time) (Duplicate, error) {
	c.Partition()
	key := dataset.Day(date).Format(dataset.DateLayout)
	for _, d := range c.duplicates {
		if d.Incoming.DateKey() != key {
			continue
		}
		if c.resolved[key] {
			return Duplicate{}, fmt.Errorf("merge: duplicate %s already resolved: %w", key, dataset.ErrInvalidArgument)
		}
		return d, nil
	}
	return Duplicate{}, fmt.Errorf("merge: no duplicate pending for %s: %w", key, dataset.ErrInvalidArgument)
}

func (c *Controller) apply(d Duplicate, keepIncoming bool) {
	if keepIncoming {
		c.working.Replace(d.Incoming)
	}
	c.resolved[d.Incoming.DateKey()] = true
}
