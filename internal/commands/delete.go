package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a transaction permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			deleted, err := e.store.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "No transaction with id %d\n", id)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}
}
