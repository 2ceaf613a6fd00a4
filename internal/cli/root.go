// Package cli команды ledgerctl: миграции, списки доступа, комиссии, сверка.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Служебные операции реестра задач",
	Long: `ledgerctl работает с тем же хранилищем, что и HTTP сервер.
Конфигурация читается из .env и переменных окружения.
Операции владельца выполняются от имени PLATFORM_OWNER_ID.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig подменяется в тестах.
var loadConfig = config.Load

// Execute запускает корневую команду.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withLedger открывает реестр на время выполнения команды.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, ledger *app.Ledger) error) error {
	logger.Log.SetOutput(io.Discard)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ledger, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer ledger.Close()

	return fn(ctx, cfg, ledger)
}

func parseIdentityArg(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("неверная идентичность %q", raw)
	}
	return id, nil
}
