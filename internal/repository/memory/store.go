// Package memory хранилище реестра в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type allowKey struct {
	scope    models.AccessScope
	identity uuid.UUID
}

// state снимок всего реестра. Транзакция работает с копией,
// при фиксации копия заменяет текущий снимок.
type state struct {
	tasks        []models.Task
	escrows      map[uint64]models.Escrow
	feePool      uint64
	totalFunded  uint64
	stats        map[uuid.UUID]models.UserStats
	allow        map[allowKey]models.AllowListEntry
	allowOrder   []allowKey
	balances     map[uuid.UUID]uint64
	transactions []models.Transaction
	events       []models.Event
	accounts     map[uuid.UUID]models.Account
}

func newState() *state {
	return &state{
		escrows:  make(map[uint64]models.Escrow),
		stats:    make(map[uuid.UUID]models.UserStats),
		allow:    make(map[allowKey]models.AllowListEntry),
		balances: make(map[uuid.UUID]uint64),
		accounts: make(map[uuid.UUID]models.Account),
	}
}

func (s *state) clone() *state {
	c := &state{
		tasks:        append([]models.Task(nil), s.tasks...),
		escrows:      make(map[uint64]models.Escrow, len(s.escrows)),
		feePool:      s.feePool,
		totalFunded:  s.totalFunded,
		stats:        make(map[uuid.UUID]models.UserStats, len(s.stats)),
		allow:        make(map[allowKey]models.AllowListEntry, len(s.allow)),
		allowOrder:   append([]allowKey(nil), s.allowOrder...),
		balances:     make(map[uuid.UUID]uint64, len(s.balances)),
		transactions: append([]models.Transaction(nil), s.transactions...),
		events:       append([]models.Event(nil), s.events...),
		accounts:     make(map[uuid.UUID]models.Account, len(s.accounts)),
	}
	for k, v := range s.escrows {
		c.escrows[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	for k, v := range s.allow {
		c.allow[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	return c
}

// Store реализация repository.UnitOfWork в памяти.
type Store struct {
	mu      sync.Mutex
	readMu  sync.RWMutex
	current *state
}

func NewStore() *Store {
	return &Store{current: newState()}
}

// Do выполняет fn над копией снимка и публикует её только при успехе.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if tx, writable, ok := repository.TxFromContext(ctx); ok {
		if !writable {
			return common.ErrReadOnly
		}
		return fn(ctx, tx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readMu.RLock()
	working := s.current.clone()
	s.readMu.RUnlock()

	hooks := &repository.CommitHooks{}
	tx := &memTx{CommitHooks: hooks, st: working}
	if err := fn(repository.ContextWithTx(ctx, tx, true), tx); err != nil {
		return err
	}

	s.readMu.Lock()
	s.current = working
	s.readMu.Unlock()

	hooks.Run()
	return nil
}

// View выполняет fn над текущим снимком без копирования.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if tx, _, ok := repository.TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}

	s.readMu.RLock()
	defer s.readMu.RUnlock()

	tx := &memTx{CommitHooks: &repository.CommitHooks{}, st: s.current, readOnly: true}
	return fn(repository.ContextWithTx(ctx, tx, false), tx)
}

type memTx struct {
	*repository.CommitHooks
	st       *state
	readOnly bool
}

func (t *memTx) Tasks() repository.TaskStore           { return taskStore{t} }
func (t *memTx) Escrows() repository.EscrowStore       { return escrowStore{t} }
func (t *memTx) Stats() repository.StatsStore          { return statsStore{t} }
func (t *memTx) AllowLists() repository.AllowListStore { return allowListStore{t} }
func (t *memTx) Wallets() repository.WalletStore       { return walletStore{t} }
func (t *memTx) Events() repository.EventStore         { return eventStore{t} }
func (t *memTx) Accounts() repository.AccountStore     { return accountStore{t} }

// writable защищает снимок, на который ссылается View.
func (t *memTx) writable() error {
	if t.readOnly {
		return common.ErrReadOnly
	}
	return nil
}
