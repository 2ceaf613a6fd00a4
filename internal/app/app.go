// Package app собирает хранилище и сервисы реестра по конфигурации.
// Используется HTTP сервером и ledgerctl.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/db"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/memory"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// Ledger хранилище и сервисы реестра.
type Ledger struct {
	DB    *sqlx.DB
	Store repository.UnitOfWork
	Clock chain.Clock

	Gate       *service.AccessGate
	Wallets    *service.WalletService
	Escrow     *service.EscrowService
	Reputation *service.ReputationService
	Tasks      *service.TaskService
	Audit      *service.AuditService
}

// OpenStore подключает хранилище выбранного драйвера. Для memory db равен nil.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.UnitOfWork, *sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Log.Warn("app: используется хранилище в памяти, данные не сохраняются")
		return memory.NewStore(), nil, nil
	case config.StoragePostgres:
		conn, err = db.Open(ctx, db.DriverPostgres, cfg.DatabaseURL, cfg.MigrationsPath)
	case config.StorageSQLite:
		conn, err = db.Open(ctx, db.DriverSQLite, cfg.SQLitePath, cfg.MigrationsPath)
	default:
		return nil, nil, fmt.Errorf("app: неизвестный драйвер хранилища %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLStore(conn), conn, nil
}

// New собирает сервисы поверх открытого хранилища.
func New(cfg *config.Config, store repository.UnitOfWork, conn *sqlx.DB, clock chain.Clock, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}

	gate := service.NewAccessGate(store, clock, cfg.OwnerID, publisher)
	wallets := service.NewWalletService(store, clock, cfg.OwnerID, publisher)
	escrow := service.NewEscrowService(store, gate, wallets, clock, cfg.Policy, publisher)
	reputation := service.NewReputationService(store, gate, cfg.Policy)
	tasks := service.NewTaskService(store, gate, escrow, reputation, clock, cfg.Policy, cfg.RegistryID, publisher)

	return &Ledger{
		DB:         conn,
		Store:      store,
		Clock:      clock,
		Gate:       gate,
		Wallets:    wallets,
		Escrow:     escrow,
		Reputation: reputation,
		Tasks:      tasks,
		Audit:      service.NewAuditService(store),
	}
}

// Open подключает хранилище по конфигурации и собирает сервисы.
// Реестр задач получает доступ к escrow и репутации.
func Open(ctx context.Context, cfg *config.Config, publisher events.Publisher) (*Ledger, error) {
	store, conn, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ledger := New(cfg, store, conn, chain.NewTimeClock(cfg.BlockGenesis, cfg.BlockInterval), publisher)
	if err := ledger.Gate.EnsureRegistry(ctx, cfg.RegistryID); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("app: не удалось выдать доступ реестру: %w", err)
	}
	return ledger, nil
}

// Close закрывает соединение с базой.
func (l *Ledger) Close() error {
	if l.DB == nil {
		return nil
	}
	return l.DB.Close()
}
