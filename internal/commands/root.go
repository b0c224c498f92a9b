// Package commands implements the tally CLI. The CLI is one caller of the
// ledger library, in the position the original desktop UI occupied; the
// library itself carries no CLI coupling.
package commands

import (
	"github.com/spf13/cobra"

	"tally/internal/config"
	"tally/internal/storage"
)

// env carries the state shared by all subcommands. The store is opened once
// by the root command's persistent hooks and closed after the subcommand ran.
type env struct {
	store *storage.SQLiteStore
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "tally",
		Short: "Personal income and expense ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			store, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			e.store = store
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.store != nil {
				return e.store.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the ledger database")

	rootCmd.AddCommand(newAddCommand(e))
	rootCmd.AddCommand(newListCommand(e))
	rootCmd.AddCommand(newBalanceCommand(e))
	rootCmd.AddCommand(newSummaryCommand(e))
	rootCmd.AddCommand(newUpdateCommand(e))
	rootCmd.AddCommand(newDeleteCommand(e))

	return rootCmd
}
