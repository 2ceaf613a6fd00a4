package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

// TaskStore хранилище задач. Задачи никогда не удаляются.
type TaskStore interface {
	NextID(ctx context.Context) (uint64, error)
	Insert(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id uint64) (*models.Task, error)
	Count(ctx context.Context) (uint64, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
}

// EscrowStore хранилище escrow по задачам и пула комиссий платформы.
type EscrowStore interface {
	Insert(ctx context.Context, escrow *models.Escrow) error
	Update(ctx context.Context, escrow *models.Escrow) error
	Get(ctx context.Context, taskID uint64) (*models.Escrow, error)
	SumHeld(ctx context.Context) (uint64, error)
	FeePool(ctx context.Context) (uint64, error)
	SetFeePool(ctx context.Context, amount uint64) error
}

// StatsStore хранилище накопительной статистики пользователей.
// Get возвращает нулевую запись для неизвестного пользователя.
type StatsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (models.UserStats, error)
	Save(ctx context.Context, stats models.UserStats) error
}

// AllowListStore списки доверенных вызывающих по областям.
type AllowListStore interface {
	Contains(ctx context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error)
	Add(ctx context.Context, entry models.AllowListEntry) error
	Remove(ctx context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error)
	List(ctx context.Context, scope models.AccessScope) ([]models.AllowListEntry, error)
}

// WalletStore балансы и журнал движений средств.
type WalletStore interface {
	Balance(ctx context.Context, userID uuid.UUID) (uint64, error)
	SetBalance(ctx context.Context, userID uuid.UUID, amount uint64) error
	SumBalances(ctx context.Context) (uint64, error)
	TotalFunded(ctx context.Context) (uint64, error)
	SetTotalFunded(ctx context.Context, amount uint64) error
	AddTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// EventStore журнал событий реестра. Append присваивает Seq.
type EventStore interface {
	Append(ctx context.Context, event *models.Event) error
	ListByTask(ctx context.Context, taskID uint64) ([]models.Event, error)
	ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]models.Event, error)
}

// AccountStore учётные записи.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Tx набор хранилищ внутри одной транзакции.
// Функции, переданные в OnCommit, выполняются только после успешной фиксации.
type Tx interface {
	Tasks() TaskStore
	Escrows() EscrowStore
	Stats() StatsStore
	AllowLists() AllowListStore
	Wallets() WalletStore
	Events() EventStore
	Accounts() AccountStore
	OnCommit(fn func())
}

// UnitOfWork выполняет операции реестра атомарно и последовательно.
// Вложенный вызов с контекстом, уже несущим транзакцию, присоединяется к ней.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type txKey struct{}

type txState struct {
	tx       Tx
	writable bool
}

// ContextWithTx возвращает контекст, несущий открытую транзакцию.
func ContextWithTx(ctx context.Context, tx Tx, writable bool) context.Context {
	return context.WithValue(ctx, txKey{}, txState{tx: tx, writable: writable})
}

// TxFromContext извлекает открытую транзакцию из контекста.
func TxFromContext(ctx context.Context) (Tx, bool, bool) {
	state, ok := ctx.Value(txKey{}).(txState)
	if !ok {
		return nil, false, false
	}
	return state.tx, state.writable, true
}

// CommitHooks накапливает действия, выполняемые после фиксации.
type CommitHooks struct {
	fns []func()
}

// OnCommit регистрирует действие.
func (h *CommitHooks) OnCommit(fn func()) {
	h.fns = append(h.fns, fn)
}

// Run выполняет действия в порядке регистрации.
func (h *CommitHooks) Run() {
	for _, fn := range h.fns {
		fn()
	}
}
