package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
)

func init() {
	rootCmd.AddCommand(withdrawFeesCmd, fundCmd, auditCmd)
}

var withdrawFeesCmd = &cobra.Command{
	Use:   "withdraw-fees RECIPIENT",
	Short: "Перевести весь пул комиссий на кошелёк получателя",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
			amount, err := ledger.Escrow.WithdrawPlatformFees(ctx, cfg.OwnerID, recipient)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "выведено %d на %s\n", amount, recipient)
			return nil
		})
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund USER AMOUNT",
	Short: "Пополнить кошелёк пользователя",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := parseIdentityArg(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("неверная сумма %q", args[1])
		}
		return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
			balance, err := ledger.Wallets.Fund(ctx, cfg.OwnerID, user, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "баланс %s: %d\n", user, balance.Available)
			return nil
		})
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Сверить балансы, escrow и пул комиссий с внесёнными средствами",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error {
			report, err := ledger.Audit.Check(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "внесено:        %d\n", report.TotalFunded)
			fmt.Fprintf(out, "на кошельках:   %d\n", report.WalletBalances)
			fmt.Fprintf(out, "в escrow:       %d\n", report.EscrowHeld)
			fmt.Fprintf(out, "пул комиссий:   %d\n", report.FeePool)
			if !report.Balanced {
				return fmt.Errorf("реестр не сходится")
			}
			fmt.Fprintln(out, "реестр сходится")
			return nil
		})
	},
}
