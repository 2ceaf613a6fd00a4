package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

func init() {
	rootCmd.AddCommand(authorizeCmd, revokeCmd, allowListCmd)
}

var authorizeCmd = &cobra.Command{
	Use:   "authorize SCOPE IDENTITY",
	Short: "Добавить идентичность в список доступа (escrow, reputation, arbiter)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeAccess(cmd, args, true)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke SCOPE IDENTITY",
	Short: "Удалить идентичность из списка доступа",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeAccess(cmd, args, false)
	},
}

var allowListCmd = &cobra.Command{
	Use:   "allowlist SCOPE",
	Short: "Показать список доступа",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := models.AccessScope(args[0])
		return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
			entries, err := ledger.Gate.List(ctx, scope)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTITY\tGRANTED BY\tHEIGHT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\n", e.Identity, e.GrantedBy, e.GrantedHeight)
			}
			return w.Flush()
		})
	},
}

func changeAccess(cmd *cobra.Command, args []string, grant bool) error {
	scope := models.AccessScope(args[0])
	identity, err := parseIdentityArg(args[1])
	if err != nil {
		return err
	}

	return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
		if grant {
			if err := ledger.Gate.Authorize(ctx, cfg.OwnerID, scope, identity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s добавлен в %s\n", identity, scope)
			return nil
		}
		if err := ledger.Gate.Revoke(ctx, cfg.OwnerID, scope, identity); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s удалён из %s\n", identity, scope)
		return nil
	})
}
