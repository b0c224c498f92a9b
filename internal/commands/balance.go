package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBalanceCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the overall balance and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			income, err := e.store.IncomeTotal(ctx)
			if err != nil {
				return err
			}
			expense, err := e.store.ExpenseTotal(ctx)
			if err != nil {
				return err
			}
			balance, err := e.store.Balance(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Income:  %.2f\n", income)
			fmt.Fprintf(out, "Expense: %.2f\n", expense)
			fmt.Fprintf(out, "Balance: %.2f\n", balance)
			return nil
		},
	}
}
