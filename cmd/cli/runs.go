package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dornbi/bltools-go/internal/database"
	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsOffset int
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past optimizer runs",
	Long:  `List past optimizer runs from the database, newest first.`,
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to list")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "Number of runs to skip")
}

func runRuns(cmd *cobra.Command, args []string) error {
	runs, err := database.ListRuns(cmd.Context(), runsLimit, runsOffset)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tSTATUS\tGRAND TOTAL\tGROSS TOTAL\tCREATED AT")
	fmt.Fprintln(w, "--\t----\t------\t-----------\t-----------\t----------")
	for _, r := range runs {
		grand, gross := "-", "-"
		if r.GrandTotal != nil {
			grand = fmt.Sprintf("%.2f", *r.GrandTotal)
		}
		if r.GrossTotal != nil {
			gross = fmt.Sprintf("%.2f", *r.GrossTotal)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Mode, r.Status, grand, gross, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	return nil
}
