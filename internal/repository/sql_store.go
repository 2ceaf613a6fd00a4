package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

// ledgerLockKey ключ advisory-блокировки PostgreSQL, сериализующей операции реестра
// между несколькими процессами.
const ledgerLockKey int64 = 0x7461736b626e7479

// SQLStore реализация UnitOfWork поверх PostgreSQL или SQLite.
type SQLStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// DB возвращает подключение, например для health-check.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Do выполняет fn в сериализованной транзакции записи.
func (s *SQLStore) Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if tx, writable, ok := TxFromContext(ctx); ok {
		if !writable {
			return common.ErrReadOnly
		}
		return fn(ctx, tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hooks := &CommitHooks{}
	err := common.WithTransaction(ctx, s.db, nil, func(sqlTx *sqlx.Tx) error {
		if s.db.DriverName() == "postgres" {
			if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
				return fmt.Errorf("sql store: advisory lock: %w", err)
			}
		}
		tx := newSQLTx(sqlTx, hooks)
		return fn(ContextWithTx(ctx, tx, true), tx)
	})
	if err != nil {
		return err
	}

	hooks.Run()
	return nil
}

// View выполняет fn в транзакции только для чтения.
func (s *SQLStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if tx, _, ok := TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}

	// Флаг ReadOnly передаётся только PostgreSQL.
	var opts *sql.TxOptions
	if s.db.DriverName() == "postgres" {
		opts = &sql.TxOptions{ReadOnly: true}
	}

	hooks := &CommitHooks{}
	return common.WithTransaction(ctx, s.db, opts, func(sqlTx *sqlx.Tx) error {
		tx := newSQLTx(sqlTx, hooks)
		return fn(ContextWithTx(ctx, tx, false), tx)
	})
}

type sqlTx struct {
	*CommitHooks
	tasks      *TaskRepository
	escrows    *EscrowRepository
	stats      *StatsRepository
	allowLists *AllowListRepository
	wallets    *WalletRepository
	events     *EventRepository
	accounts   *AccountRepository
}

func newSQLTx(tx *sqlx.Tx, hooks *CommitHooks) *sqlTx {
	return &sqlTx{
		CommitHooks: hooks,
		tasks:       NewTaskRepository(tx),
		escrows:     NewEscrowRepository(tx),
		stats:       NewStatsRepository(tx),
		allowLists:  NewAllowListRepository(tx),
		wallets:     NewWalletRepository(tx),
		events:      NewEventRepository(tx),
		accounts:    NewAccountRepository(tx),
	}
}

func (t *sqlTx) Tasks() TaskStore           { return t.tasks }
func (t *sqlTx) Escrows() EscrowStore       { return t.escrows }
func (t *sqlTx) Stats() StatsStore          { return t.stats }
func (t *sqlTx) AllowLists() AllowListStore { return t.allowLists }
func (t *sqlTx) Wallets() WalletStore       { return t.wallets }
func (t *sqlTx) Events() EventStore         { return t.events }
func (t *sqlTx) Accounts() AccountStore     { return t.accounts }
