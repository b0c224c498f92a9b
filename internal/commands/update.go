package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/core"
)

func newUpdateCommand(e *env) *cobra.Command {
	var (
		amount  float64
		kind    string
		remarks string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			var changes core.Changes
			if cmd.Flags().Changed("amount") {
				changes.Amount = &amount
			}
			if cmd.Flags().Changed("kind") {
				k, err := core.ParseKind(kind)
				if err != nil {
					return err
				}
				changes.Kind = &k
			}
			if cmd.Flags().Changed("remarks") {
				changes.Remarks = &remarks
			}
			if cmd.Flags().Changed("date") {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				changes.Date = &d
			}

			updated, err := e.store.Update(cmd.Context(), id, changes)
			if err != nil {
				return err
			}
			if !updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing updated for transaction %d\n", id)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated transaction %d\n", id)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&kind, "kind", "", "new kind (income or expense)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "new remarks")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")

	return cmd
}
