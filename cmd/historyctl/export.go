package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moldhistory/internal/history"
)

var (
	exportOut   string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered history as CSV",
	Example: `  historyctl export --dir ./data > history.csv
  historyctl export --url https://snapshots.example.com/history/ --action AUDIT --out audits.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := buildQuery()
		if err != nil {
			return fmt.Errorf("%s", history.FormatUserError(err))
		}
		eng, err := openEngine(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("%s", history.FormatUserError(err))
		}
		events := eng.Filtered()

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}

		if err := history.WriteCSV(w, events, exportLimit); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		if exportOut != "" && exportOut != "-" {
			n := len(events)
			if exportLimit > 0 && n > exportLimit {
				n = exportLimit
			}
			infoColor.Fprintf(cmd.ErrOrStderr(), "wrote %d events to %s\n", n, exportOut)
		}
		return nil
	},
}

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum rows; 0 for all")
	rootCmd.AddCommand(exportCmd)
}
