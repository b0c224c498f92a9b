package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSummaryCommand(e *env) *cobra.Command {
	var (
		year  int
		month int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and balance for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := e.store.MonthlySummary(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary for %04d-%02d\n", summary.Year, summary.Month)
			fmt.Fprintf(out, "Income:  %.2f\n", summary.Income)
			fmt.Fprintf(out, "Expense: %.2f\n", summary.Expense)
			fmt.Fprintf(out, "Balance: %.2f\n", summary.Balance)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year to summarize (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "month to summarize, 1-12 (default current)")

	return cmd
}
