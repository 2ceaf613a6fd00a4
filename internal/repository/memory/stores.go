package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type taskStore struct{ t *memTx }

func (s taskStore) NextID(context.Context) (uint64, error) {
	return uint64(len(s.t.st.tasks)) + 1, nil
}

func (s taskStore) Insert(_ context.Context, task *models.Task) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	// Задачи лежат в срезе по индексу id-1.
	if task.ID != uint64(len(s.t.st.tasks))+1 {
		return common.ErrAlreadyExists
	}
	s.t.st.tasks = append(s.t.st.tasks, *task)
	return nil
}

func (s taskStore) Update(_ context.Context, task *models.Task) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	if task.ID == 0 || task.ID > uint64(len(s.t.st.tasks)) {
		return common.ErrNotFound
	}
	s.t.st.tasks[task.ID-1] = *task
	return nil
}

func (s taskStore) Get(_ context.Context, id uint64) (*models.Task, error) {
	if id == 0 || id > uint64(len(s.t.st.tasks)) {
		return nil, common.ErrNotFound
	}
	task := s.t.st.tasks[id-1]
	return &task, nil
}

func (s taskStore) Count(context.Context) (uint64, error) {
	return uint64(len(s.t.st.tasks)), nil
}

func (s taskStore) List(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	out := []models.Task{}
	skipped := 0
	for _, task := range s.t.st.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Creator.Valid && task.Creator != filter.Creator.UUID {
			continue
		}
		if filter.Worker.Valid && !task.IsWorker(filter.Worker.UUID) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		if len(out) >= filter.Limit {
			break
		}
		out = append(out, task)
	}
	return out, nil
}

type escrowStore struct{ t *memTx }

func (s escrowStore) Insert(_ context.Context, escrow *models.Escrow) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	if _, ok := s.t.st.escrows[escrow.TaskID]; ok {
		return common.ErrAlreadyExists
	}
	s.t.st.escrows[escrow.TaskID] = *escrow
	return nil
}

func (s escrowStore) Update(_ context.Context, escrow *models.Escrow) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	if _, ok := s.t.st.escrows[escrow.TaskID]; !ok {
		return common.ErrNotFound
	}
	s.t.st.escrows[escrow.TaskID] = *escrow
	return nil
}

func (s escrowStore) Get(_ context.Context, taskID uint64) (*models.Escrow, error) {
	escrow, ok := s.t.st.escrows[taskID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &escrow, nil
}

func (s escrowStore) SumHeld(context.Context) (uint64, error) {
	var sum uint64
	for _, escrow := range s.t.st.escrows {
		if !escrow.Released {
			sum += escrow.Amount
		}
	}
	return sum, nil
}

func (s escrowStore) FeePool(context.Context) (uint64, error) {
	return s.t.st.feePool, nil
}

func (s escrowStore) SetFeePool(_ context.Context, amount uint64) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.feePool = amount
	return nil
}

type statsStore struct{ t *memTx }

func (s statsStore) Get(_ context.Context, userID uuid.UUID) (models.UserStats, error) {
	stats, ok := s.t.st.stats[userID]
	if !ok {
		return models.UserStats{UserID: userID}, nil
	}
	return stats, nil
}

func (s statsStore) Save(_ context.Context, stats models.UserStats) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.stats[stats.UserID] = stats
	return nil
}

type allowListStore struct{ t *memTx }

func (s allowListStore) Contains(_ context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error) {
	_, ok := s.t.st.allow[allowKey{scope, identity}]
	return ok, nil
}

func (s allowListStore) Add(_ context.Context, entry models.AllowListEntry) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	key := allowKey{entry.Scope, entry.Identity}
	if _, ok := s.t.st.allow[key]; ok {
		return nil
	}
	s.t.st.allow[key] = entry
	s.t.st.allowOrder = append(s.t.st.allowOrder, key)
	return nil
}

func (s allowListStore) Remove(_ context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error) {
	if err := s.t.writable(); err != nil {
		return false, err
	}
	key := allowKey{scope, identity}
	if _, ok := s.t.st.allow[key]; !ok {
		return false, nil
	}
	delete(s.t.st.allow, key)
	order := s.t.st.allowOrder[:0:0]
	for _, k := range s.t.st.allowOrder {
		if k != key {
			order = append(order, k)
		}
	}
	s.t.st.allowOrder = order
	return true, nil
}

func (s allowListStore) List(_ context.Context, scope models.AccessScope) ([]models.AllowListEntry, error) {
	entries := []models.AllowListEntry{}
	for _, key := range s.t.st.allowOrder {
		if key.scope == scope {
			entries = append(entries, s.t.st.allow[key])
		}
	}
	return entries, nil
}

type walletStore struct{ t *memTx }

func (s walletStore) Balance(_ context.Context, userID uuid.UUID) (uint64, error) {
	return s.t.st.balances[userID], nil
}

func (s walletStore) SetBalance(_ context.Context, userID uuid.UUID, amount uint64) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.balances[userID] = amount
	return nil
}

func (s walletStore) SumBalances(context.Context) (uint64, error) {
	var sum uint64
	for _, balance := range s.t.st.balances {
		sum += balance
	}
	return sum, nil
}

func (s walletStore) TotalFunded(context.Context) (uint64, error) {
	return s.t.st.totalFunded, nil
}

func (s walletStore) SetTotalFunded(_ context.Context, amount uint64) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.totalFunded = amount
	return nil
}

func (s walletStore) AddTransaction(_ context.Context, tx *models.Transaction) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	s.t.st.transactions = append(s.t.st.transactions, *tx)
	return nil
}

func (s walletStore) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var own []models.Transaction
	for _, tx := range s.t.st.transactions {
		if tx.UserID == userID {
			own = append(own, tx)
		}
	}
	// Новые первыми; при равном времени сохраняется обратный порядок записи.
	for i, j := 0, len(own)-1; i < j; i, j = i+1, j-1 {
		own[i], own[j] = own[j], own[i]
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].CreatedAt > own[j].CreatedAt
	})
	return page(own, limit, offset), nil
}

type eventStore struct{ t *memTx }

func (s eventStore) Append(_ context.Context, event *models.Event) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	event.Seq = uint64(len(s.t.st.events)) + 1
	stored := *event
	stored.Recipients = nil
	s.t.st.events = append(s.t.st.events, stored)
	return nil
}

func (s eventStore) ListByTask(_ context.Context, taskID uint64) ([]models.Event, error) {
	events := []models.Event{}
	for _, e := range s.t.st.events {
		if e.TaskID == taskID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s eventStore) ListAfter(_ context.Context, afterSeq uint64, limit int) ([]models.Event, error) {
	if afterSeq >= uint64(len(s.t.st.events)) {
		return []models.Event{}, nil
	}
	return page(s.t.st.events[afterSeq:], limit, 0), nil
}

type accountStore struct{ t *memTx }

func (s accountStore) Create(_ context.Context, account *models.Account) error {
	if err := s.t.writable(); err != nil {
		return err
	}
	account.Email = strings.ToLower(account.Email)
	for _, existing := range s.t.st.accounts {
		if existing.Email == account.Email {
			return common.ErrAlreadyExists
		}
	}
	s.t.st.accounts[account.ID] = *account
	return nil
}

func (s accountStore) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	email = strings.ToLower(email)
	for _, account := range s.t.st.accounts {
		if account.Email == email {
			acc := account
			return &acc, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s accountStore) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	account, ok := s.t.st.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &account, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
