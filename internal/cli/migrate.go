package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/db"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции и показать применённые",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
			if ledger.DB == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "хранилище в памяти: миграции не требуются")
				return nil
			}
			applied, err := db.AppliedMigrations(ctx, ledger.DB)
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}
