package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/core"
)

func newAddCommand(e *env) *cobra.Command {
	var (
		amount  float64
		kind    string
		remarks string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new income or expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}

			var d core.Date
			if date != "" {
				d, err = core.ParseDate(date)
				if err != nil {
					return err
				}
			}

			id, err := e.store.Insert(cmd.Context(), amount, k, remarks, d)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s #%d: %.2f\n", kind, id, amount)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "transaction amount")
	cmd.Flags().StringVar(&kind, "kind", "", "income or expense")
	cmd.Flags().StringVar(&remarks, "remarks", "", "free-text remarks")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("kind")

	return cmd
}
