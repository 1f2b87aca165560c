package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/covidstat-cli/internal/analysis"
	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/merge"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
)

// ErrNothingLoaded is returned when a merge or report is requested before any
// dataset was loaded.
var ErrNothingLoaded = fmt.Errorf("no dataset loaded: %w", dataset.ErrInvalidArgument)

// Assembler owns one pipeline run: the loaded collection, the error log of
// the last parse and an optional in-progress merge.
type Assembler struct {
	log      *zap.Logger
	parseOpt parser.Options

	loaded *dataset.Collection
	errs   *parser.ErrorLog
	merge  *merge.Controller
}

// NewAssembler returns an empty assembler. A nil logger disables logging.
func NewAssembler(opt parser.Options, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	opt.Logger = log.Named("parser")
	return &Assembler{log: log, parseOpt: opt}
}

// Load parses r and makes it the current dataset, discarding any previous
// dataset and merge.
func (a *Assembler) Load(r io.Reader) error {
	c, errs, err := parser.Parse(r, a.parseOpt)
	if err != nil {
		return err
	}
	a.loaded, a.errs, a.merge = c, errs, nil
	a.log.Info("dataset loaded", zap.Int("records", c.Len()), zap.Int("rejected", errs.Len()))
	return nil
}

// BeginMerge parses r as incoming data and merges it into the current
// dataset. Records with new dates are added at once; the returned duplicates
// wait for Resolve.
func (a *Assembler) BeginMerge(r io.Reader) ([]merge.Duplicate, error) {
	if a.loaded == nil {
		return nil, ErrNothingLoaded
	}
	incoming, errs, err := parser.Parse(r, a.parseOpt)
	if err != nil {
		return nil, err
	}
	mc, err := merge.New(a.loaded, incoming)
	if err != nil {
		return nil, err
	}
	added := mc.Partition()
	a.errs, a.merge, a.loaded = errs, mc, mc.Merged()
	dups := mc.Duplicates()
	a.log.Info("merge started",
		zap.Int("incoming", incoming.Len()),
		zap.Int("added", added),
		zap.Int("duplicates", len(dups)),
		zap.Int("rejected", errs.Len()))
	return dups, nil
}

// Resolve applies a batch of decisions to the merge in progress and commits
// the result. The merge ends once no duplicate is pending.
func (a *Assembler) Resolve(decisions []merge.Decision) error {
	if a.merge == nil {
		return fmt.Errorf("no merge in progress: %w", dataset.ErrInvalidArgument)
	}
	if err := a.merge.Apply(decisions); err != nil {
		return err
	}
	a.loaded = a.merge.Merged()
	if len(a.merge.Pending()) == 0 {
		a.merge = nil
	}
	return nil
}

// Duplicates lists the unresolved duplicates of the merge in progress.
func (a *Assembler) Duplicates() []merge.Duplicate {
	if a.merge == nil {
		return nil
	}
	return a.merge.Pending()
}

// Errors is the joined error log of the last parse.
func (a *Assembler) Errors() string { return a.errs.String() }

// ErrorLog is the error log of the last parse.
func (a *Assembler) ErrorLog() *parser.ErrorLog { return a.errs }

// Collection returns a copy of the current dataset, or nil before Load.
func (a *Assembler) Collection() *dataset.Collection {
	if a.loaded == nil {
		return nil
	}
	return a.loaded.Clone()
}

// Loaded reports whether a dataset is present.
func (a *Assembler) Loaded() bool { return a.loaded != nil }

// Reset drops the dataset, error log and merge.
func (a *Assembler) Reset() {
	a.loaded, a.errs, a.merge = nil, nil, nil
}

// Summary computes every report section over a region-filtered copy of the
// current dataset. Sections run concurrently and fail independently; only a
// missing dataset or a cancelled context fails the whole summary.
func (a *Assembler) Summary(ctx context.Context, s Settings) (*Summary, error) {
	if a.loaded == nil {
		return nil, ErrNothingLoaded
	}
	view := a.loaded.FilterRegion(s.RegionFilter)
	st, err := analysis.NewStatistics(view)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Settings:    s,
		Records:     view.Len(),
		Rejected:    a.errs.Len(),
		Extremes:    make([]FieldExtremes, len(dataset.Fields)),
	}
	log := a.log.With(zap.String("run_id", sum.RunID))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))
	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				log.Debug("section unavailable", zap.String("section", name), zap.Error(err))
			}
			return nil
		})
	}

	for i, f := range dataset.Fields {
		run("extremes/"+f.String(), func() error {
			hi, errHi := st.Highest(f)
			lo, errLo := st.Lowest(f)
			sum.Extremes[i] = FieldExtremes{
				Field:   f,
				Name:    f.String(),
				Highest: section(hi, errHi),
				Lowest:  section(lo, errLo),
			}
			return errors.Join(errHi, errLo)
		})
	}
	run("first_positive_day", func() error {
		sum.FirstPositiveDay = section(st.FirstPositiveDay())
		return sum.FirstPositiveDay.Err
	})
	run("average_positive", func() error {
		sum.AveragePositive = section(st.AveragePositiveSinceFirstPositive())
		return sum.AveragePositive.Err
	})
	run("average_total", func() error {
		sum.AverageTotal = section(st.AverageTotalSinceFirstPositive())
		return sum.AverageTotal.Err
	})
	run("positivity_rate", func() error {
		sum.PositivityRate = section(st.PositivityRateSinceFirstPositive())
		return sum.PositivityRate.Err
	})
	run("highest_positivity", func() error {
		sum.HighestPositivity = section(st.HighestPositivity())
		return sum.HighestPositivity.Err
	})
	run("days_above", func() error {
		sum.DaysAbove = section(st.DaysAbove(s.UpperPositiveThreshold))
		return sum.DaysAbove.Err
	})
	run("days_below", func() error {
		sum.DaysBelow = section(st.DaysBelow(s.LowerPositiveThreshold))
		return sum.DaysBelow.Err
	})
	run("histogram", func() error {
		values, err := st.PositiveTestsSinceFirstPositive()
		if err != nil {
			sum.Histogram = section[[]analysis.Bin](nil, err)
			return err
		}
		sum.Histogram = section(analysis.Histogram(values, s.HistogramBinWidth))
		return sum.Histogram.Err
	})
	run("monthly", func() error {
		sum.Monthly = section(st.Monthly())
		return sum.Monthly.Err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("report assembled", zap.Int("records", sum.Records))
	return sum, nil
}
