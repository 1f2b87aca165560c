package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/merge"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
	"github.com/KaramelBytes/covidstat-cli/internal/report"
	"github.com/KaramelBytes/covidstat-cli/internal/utils"
)

var (
	mrgFlags     reportFlags
	mrgList      bool
	mrgDecisions string
	mrgKeep      string
	mrgSave      string
	mrgSheet     string
)

// decisionEntry is one item of a --decisions file:
//
//   - date: 2020-03-01
//     keep: incoming
type decisionEntry struct {
	Date string `yaml:"date"`
	Keep string `yaml:"keep"`
}

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <incoming>",
	Short: "Merge an updated export into a base dataset and report on the result",
	Long: `Merge adds every incoming day that is missing from the base dataset. Days present
in both are duplicates: decide them with a YAML --decisions file, settle the rest
with --keep incoming|base, or inspect them first with --list.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keepAll, err := parseKeep(mrgKeep)
		if err != nil {
			return err
		}
		a := newAssembler()
		if err := loadInto(a, args[0], mrgSheet); err != nil {
			return err
		}
		text, err := parser.ReadFile(args[1], parser.ReadOptions{Sheet: mrgSheet})
		if err != nil {
			return err
		}
		dups, err := a.BeginMerge(strings.NewReader(text))
		if err != nil {
			return fmt.Errorf("merge %s: %w", args[1], err)
		}
		w := cmd.OutOrStdout()
		if n := a.ErrorLog().Len(); n > 0 && !mrgFlags.showErrors {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d incoming line(s) rejected\n", n)
		}

		if mrgList {
			if len(dups) == 0 {
				fmt.Fprintln(w, "No duplicate dates")
				return nil
			}
			fmt.Fprintf(w, "%d duplicate date(s):\n", len(dups))
			for _, d := range dups {
				fmt.Fprintf(w, "  %s\n    base:     %s\n    incoming: %s\n", d.Incoming.DateKey(), d.Base, d.Incoming)
			}
			return nil
		}

		var decisions []merge.Decision
		if mrgDecisions != "" {
			decisions, err = readDecisions(mrgDecisions)
			if err != nil {
				return err
			}
		}
		decided := map[string]bool{}
		for _, d := range decisions {
			decided[d.Date.Format(dataset.DateLayout)] = true
		}
		if keepAll != nil {
			for _, d := range dups {
				if !decided[d.Incoming.DateKey()] {
					decisions = append(decisions, merge.Decision{Date: d.Date(), KeepIncoming: *keepAll})
				}
			}
		}
		if len(decisions) > 0 {
			if err := a.Resolve(decisions); err != nil {
				return fmt.Errorf("resolve duplicates: %w", err)
			}
		}
		if left := len(a.Duplicates()); left > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d duplicate date(s) undecided; base records kept (use --keep or --decisions)\n", left)
		}
		fmt.Fprintf(w, "✓ Merged %d duplicate decision(s); dataset now has %d records\n", len(decisions), a.Collection().Len())

		if mrgSave != "" {
			if err := saveCollection(mrgSave, a); err != nil {
				return err
			}
			fmt.Fprintf(w, "✓ Saved merged dataset to %s\n", mrgSave)
		}
		return mrgFlags.emit(cmd, a)
	},
}

func parseKeep(s string) (*bool, error) {
	var keep bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "incoming", "new":
		keep = true
	case "base", "old":
		keep = false
	default:
		return nil, fmt.Errorf("invalid --keep: %s (use incoming or base)", s)
	}
	return &keep, nil
}

func readDecisions(path string) ([]merge.Decision, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	var entries []decisionEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse decisions %s: %w", path, err)
	}
	out := make([]merge.Decision, 0, len(entries))
	for i, e := range entries {
		date, err := time.Parse(dataset.DateLayout, strings.TrimSpace(e.Date))
		if err != nil {
			return nil, fmt.Errorf("decision %d: invalid date %q", i+1, e.Date)
		}
		keep, err := parseKeep(e.Keep)
		if err != nil || keep == nil {
			return nil, fmt.Errorf("decision %d: keep must be incoming or base, got %q", i+1, e.Keep)
		}
		out = append(out, merge.Decision{Date: date, KeepIncoming: *keep})
	}
	return out, nil
}

func saveCollection(path string, a *report.Assembler) error {
	var buf bytes.Buffer
	if err := parser.Write(&buf, a.Collection()); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save merged dataset: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mrgFlags.register(mergeCmd)
	mergeCmd.Flags().BoolVar(&mrgList, "list", false, "list duplicate dates and exit")
	mergeCmd.Flags().StringVar(&mrgDecisions, "decisions", "", "YAML file of {date, keep: incoming|base} entries")
	mergeCmd.Flags().StringVar(&mrgKeep, "keep", "", "decide every remaining duplicate: incoming|base")
	mergeCmd.Flags().StringVar(&mrgSave, "save", "", "write the merged dataset as CSV to this path")
	mergeCmd.Flags().StringVar(&mrgSheet, "sheet", "", "XLSX: sheet name for both inputs (default first sheet)")
}
