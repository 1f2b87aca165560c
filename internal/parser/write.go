package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
)

// Header is the header line written by Write.
var Header = []string{"region", "date", "positiveTests", "negativeTests", "deaths", "hospitalizations", "totalTests"}

// Write emits c as CSV in the seven-column layout Parse accepts, so a written
// collection parses back unchanged.
func Write(w io.Writer, c *dataset.Collection) error {
	if w == nil || c == nil {
		return fmt.Errorf("write records: %w", dataset.ErrInvalidArgument)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range c.Records() {
		row := []string{
			r.Region,
			r.DateKey(),
			strconv.Itoa(r.PositiveTests),
			strconv.Itoa(r.NegativeTests),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Hospitalizations),
			strconv.Itoa(r.TotalTests),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.DateKey(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}
