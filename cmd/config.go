package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/covidstat-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set covidstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(w, "No config loaded")
			return nil
		}
		region := cfg.RegionFilter
		if region == "" {
			region = "(all regions)"
		}
		fmt.Fprintf(w, "region_filter: %s\n", region)
		fmt.Fprintf(w, "upper_positive_threshold: %d\n", cfg.UpperPositiveThreshold)
		fmt.Fprintf(w, "lower_positive_threshold: %d\n", cfg.LowerPositiveThreshold)
		fmt.Fprintf(w, "histogram_bin_width: %d\n", cfg.HistogramBinWidth)
		fmt.Fprintf(w, "date_layouts: %s\n", strings.Join(cfg.DateLayouts, ", "))
		fmt.Fprintf(w, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(w, "report_workers: %d\n", cfg.ReportWorkers)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		// work on a copy so a rejected value leaves the loaded config intact
		next := *cfg
		atoi := func() (int, error) {
			i, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return 0, fmt.Errorf("invalid int for %s: %v", key, val)
			}
			return i, nil
		}
		var err error
		switch key {
		case "region_filter":
			next.RegionFilter = strings.TrimSpace(val)
		case "upper_positive_threshold":
			next.UpperPositiveThreshold, err = atoi()
		case "lower_positive_threshold":
			next.LowerPositiveThreshold, err = atoi()
		case "histogram_bin_width":
			next.HistogramBinWidth, err = atoi()
		case "date_layouts":
			next.DateLayouts = nil
			for _, l := range strings.Split(val, ",") {
				if l = strings.TrimSpace(l); l != "" {
					next.DateLayouts = append(next.DateLayouts, l)
				}
			}
		case "output_format":
			next.OutputFormat = strings.ToLower(strings.TrimSpace(val))
		case "report_workers":
			next.ReportWorkers, err = atoi()
		case "log_level":
			next.LogLevel = strings.ToLower(strings.TrimSpace(val))
		default:
			return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(cfgpkg.Keys, ", "))
		}
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
