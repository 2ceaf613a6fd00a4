package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type WalletRepository struct {
	tx *sqlx.Tx
}

func NewWalletRepository(tx *sqlx.Tx) *WalletRepository {
	return &WalletRepository{tx: tx}
}

// Balance возвращает доступный баланс. Для пользователя без кошелька баланс нулевой.
func (r *WalletRepository) Balance(ctx context.Context, userID uuid.UUID) (uint64, error) {
	balance, err := common.GetByField[models.WalletBalance](ctx, r.tx, "wallet_balances", "user_id", userID)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("wallet repository: balance %s: %w", userID, err)
	}
	return balance.Available, nil
}

// SetBalance записывает баланс пользователя, создавая кошелёк при необходимости.
func (r *WalletRepository) SetBalance(ctx context.Context, userID uuid.UUID, amount uint64) error {
	query := r.tx.Rebind(`
		INSERT INTO wallet_balances (user_id, available)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET available = excluded.available
	`)
	if _, err := r.tx.ExecContext(ctx, query, userID, int64(amount)); err != nil {
		return fmt.Errorf("wallet repository: set balance %s: %w", userID, err)
	}
	return nil
}

// SumBalances сумма всех доступных балансов.
func (r *WalletRepository) SumBalances(ctx context.Context) (uint64, error) {
	sum, err := common.ScalarUint64(ctx, r.tx, `SELECT COALESCE(SUM(available), 0) FROM wallet_balances`)
	if err != nil {
		return 0, fmt.Errorf("wallet repository: sum balances: %w", err)
	}
	return sum, nil
}

// TotalFunded сумма всех пополнений за время жизни реестра.
func (r *WalletRepository) TotalFunded(ctx context.Context) (uint64, error) {
	total, err := common.ScalarUint64(ctx, r.tx, `SELECT total_funded FROM platform_state WHERE id = 1`)
	if err != nil {
		return 0, fmt.Errorf("wallet repository: total funded: %w", err)
	}
	return total, nil
}

// SetTotalFunded записывает сумму пополнений.
func (r *WalletRepository) SetTotalFunded(ctx context.Context, amount uint64) error {
	if err := common.ExecAffected(ctx, r.tx, `UPDATE platform_state SET total_funded = ? WHERE id = 1`, int64(amount)); err != nil {
		return fmt.Errorf("wallet repository: set total funded: %w", err)
	}
	return nil
}

// AddTransaction записывает движение средств.
func (r *WalletRepository) AddTransaction(ctx context.Context, t *models.Transaction) error {
	query := r.tx.Rebind(`
		INSERT INTO wallet_transactions (id, user_id, task_id, type, direction, amount, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.tx.ExecContext(ctx, query,
		t.ID, t.UserID, int64(t.TaskID), t.Type, t.Direction, int64(t.Amount), int64(t.Height), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("wallet repository: add transaction: %w", err)
	}
	return nil
}

// ListTransactions возвращает движения пользователя, новые первыми.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	query := r.tx.Rebind(`
		SELECT id, user_id, task_id, type, direction, amount, height, created_at
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, height DESC
		LIMIT ? OFFSET ?
	`)
	if err := r.tx.SelectContext(ctx, &txs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions: %w", err)
	}
	return txs, nil
}
