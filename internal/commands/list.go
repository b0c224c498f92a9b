package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/core"
)

func newListCommand(e *env) *cobra.Command {
	var (
		from string
		to   string
		kind string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				filter core.Filter
				err    error
			)
			if from != "" {
				filter.From, err = core.ParseDate(from)
				if err != nil {
					return err
				}
			}
			if to != "" {
				filter.To, err = core.ParseDate(to)
				if err != nil {
					return err
				}
			}
			if kind != "" {
				filter.Kind, err = core.ParseKind(kind)
				if err != nil {
					return err
				}
			}

			txs, err := e.store.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(txs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tREMARKS")
			for _, tx := range txs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n",
					tx.ID, tx.Date, tx.Kind, tx.Amount, tx.Remarks)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "earliest date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&kind, "kind", "", "only income or only expense")

	return cmd
}
