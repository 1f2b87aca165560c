package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var errSheet string

var errorsCmd = &cobra.Command{
	Use:   "errors <file>",
	Short: "List the input lines that could not be parsed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newAssembler()
		if err := loadInto(a, args[0], errSheet); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if a.ErrorLog().Len() == 0 {
			fmt.Fprintf(w, "✓ No rejected lines (%d records)\n", a.Collection().Len())
			return nil
		}
		fmt.Fprintln(w, a.Errors())
		fmt.Fprintf(w, "%d line(s) rejected, %d records kept\n", a.ErrorLog().Len(), a.Collection().Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(errorsCmd)
	errorsCmd.Flags().StringVar(&errSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
}
