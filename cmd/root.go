package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/covidstat-cli/internal/config"
	"github.com/KaramelBytes/covidstat-cli/internal/logger"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
	"github.com/KaramelBytes/covidstat-cli/internal/report"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "covidstat",
	Short: "covidstat: summarize daily COVID-19 test counts",
	Long: `covidstat parses daily per-region COVID-19 test exports (CSV or XLSX), merges
updated exports into an existing dataset with explicit duplicate decisions, and
prints a report of extremes, averages, positivity, a histogram and a monthly breakdown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.covidstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	}
	cfg = c

	level := "warn"
	if cfg != nil {
		level = cfg.LogLevel
	}
	if debug {
		level = "debug"
	}
	l, err := logger.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logger: %v\n", err)
		return
	}
	log = l
}

// baseSettings turns the loaded config into report defaults.
func baseSettings() report.Settings {
	s := report.DefaultSettings()
	if cfg == nil {
		return s
	}
	s.RegionFilter = cfg.RegionFilter
	s.UpperPositiveThreshold = cfg.UpperPositiveThreshold
	s.LowerPositiveThreshold = cfg.LowerPositiveThreshold
	s.HistogramBinWidth = cfg.HistogramBinWidth
	s.Workers = cfg.ReportWorkers
	return s
}

func parseOptions() parser.Options {
	opt := parser.DefaultOptions()
	if cfg != nil && len(cfg.DateLayouts) > 0 {
		opt.DateLayouts = cfg.DateLayouts
	}
	return opt
}

func newAssembler() *report.Assembler {
	return report.NewAssembler(parseOptions(), logger.Named(log, "report"))
}

// loadInto reads path (CSV, TXT or XLSX) and loads it as the current dataset.
func loadInto(a *report.Assembler, path, sheet string) error {
	text, err := parser.ReadFile(path, parser.ReadOptions{Sheet: sheet})
	if err != nil {
		return err
	}
	if err := a.Load(strings.NewReader(text)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func outputFormat(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg != nil {
		return cfg.OutputFormat
	}
	return "text"
}
