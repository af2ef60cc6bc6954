package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/internal/export"
)

var (
	runsLimit int
	runsXLSX  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs from the run journal (RUN_DB_URL)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Runs == nil {
			return fmt.Errorf("run journal not configured: set RUN_DB_URL")
		}

		if runsXLSX != "" {
			b, err := export.NewService(a.Runs, a.Logger).RunsXLSX(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(runsXLSX, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", runsXLSX, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", runsXLSX)
			return nil
		}

		runs, err := a.Runs.List(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSTATUS\tVARIANT\tFIELDS\tREPLACED\tTEMPLATE\tREPORT")
		for _, r := range runs {
			variant := "-"
			if r.Variant != nil {
				variant = *r.Variant
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Status, variant,
				r.FieldsExtracted, r.TokensReplaced, r.TemplateName, r.ReportName)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")
	runsCmd.Flags().StringVar(&runsXLSX, "xlsx", "", "write the runs to an .xlsx file instead")
	rootCmd.AddCommand(runsCmd)
}
