package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/covidstat-cli/internal/report"
	"github.com/KaramelBytes/covidstat-cli/internal/utils"
)

// reportFlags are shared by report and merge.
type reportFlags struct {
	region     string
	allRegions bool
	upper      string
	lower      string
	binWidth   string
	format     string
	output     string
	showErrors bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.region, "region", "", "only report this region (default from config, GA)")
	cmd.Flags().BoolVar(&f.allRegions, "all-regions", false, "report every region")
	cmd.Flags().StringVar(&f.upper, "upper", "", "count days with more positive tests than this")
	cmd.Flags().StringVar(&f.lower, "lower", "", "count days with fewer positive tests than this")
	cmd.Flags().StringVar(&f.binWidth, "bin-width", "", "histogram bin width in positive tests")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: text|json|yaml (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&f.showErrors, "show-errors", false, "print rejected input lines after the report")
}

func (f *reportFlags) raw(cmd *cobra.Command) report.RawSettings {
	raw := report.RawSettings{
		UpperPositiveThreshold: f.upper,
		LowerPositiveThreshold: f.lower,
		HistogramBinWidth:      f.binWidth,
	}
	switch {
	case f.allRegions:
		all := ""
		raw.RegionFilter = &all
	case cmd.Flags().Changed("region"):
		region := f.region
		raw.RegionFilter = &region
	}
	return raw
}

// emit renders the summary of a and writes it to --output or stdout.
func (f *reportFlags) emit(cmd *cobra.Command, a *report.Assembler) error {
	settings := report.ParseSettings(f.raw(cmd), baseSettings())
	sum, err := a.Summary(cmd.Context(), settings)
	if err != nil {
		return err
	}
	out, err := sum.Render(outputFormat(f.format))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if f.output != "" {
		if err := utils.SafeWriteFile(f.output, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote report to %s\n", f.output)
	} else {
		fmt.Fprint(w, string(out))
		if len(out) > 0 && out[len(out)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
	if f.showErrors && a.ErrorLog().Len() > 0 {
		// keep structured output parseable
		ew := w
		if format := strings.TrimSpace(outputFormat(f.format)); format != "" && !strings.EqualFold(format, "text") {
			ew = cmd.ErrOrStderr()
		}
		fmt.Fprintf(ew, "\n[REJECTED LINES]\n%s\n", a.Errors())
	}
	return nil
}

var (
	repFlags reportFlags
	repSheet string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Print statistics for a daily test export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newAssembler()
		if err := loadInto(a, args[0], repSheet); err != nil {
			return err
		}
		if n := a.ErrorLog().Len(); n > 0 && !repFlags.showErrors {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d line(s) rejected; rerun with --show-errors or use 'covidstat errors'\n", n)
		}
		return repFlags.emit(cmd, a)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repFlags.register(reportCmd)
	reportCmd.Flags().StringVar(&repSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
}
