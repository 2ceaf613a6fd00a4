package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type EscrowRepository struct {
	tx *sqlx.Tx
}

func NewEscrowRepository(tx *sqlx.Tx) *EscrowRepository {
	return &EscrowRepository{tx: tx}
}

// Insert создаёт escrow для задачи.
func (r *EscrowRepository) Insert(ctx context.Context, escrow *models.Escrow) error {
	query := r.tx.Rebind(`
		INSERT INTO escrows (task_id, amount, fee, creator_id, worker_id, released, dispute_opened,
			outcome, worker_payout, creator_payout, created_height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.tx.ExecContext(ctx, query,
		int64(escrow.TaskID), int64(escrow.Amount), int64(escrow.Fee), escrow.Creator, escrow.Worker,
		escrow.Released, escrow.DisputeOpened, escrow.Outcome,
		int64(escrow.WorkerPayout), int64(escrow.CreatorPayout), int64(escrow.CreatedHeight),
	)
	if err != nil {
		return fmt.Errorf("escrow repository: insert %d: %w", escrow.TaskID, err)
	}
	return nil
}

// Update сохраняет изменяемые поля escrow. Amount и Fee фиксируются при депозите.
func (r *EscrowRepository) Update(ctx context.Context, escrow *models.Escrow) error {
	err := common.ExecAffected(ctx, r.tx, `
		UPDATE escrows SET worker_id = ?, released = ?, dispute_opened = ?, outcome = ?,
			worker_payout = ?, creator_payout = ?
		WHERE task_id = ?
	`,
		escrow.Worker, escrow.Released, escrow.DisputeOpened, escrow.Outcome,
		int64(escrow.WorkerPayout), int64(escrow.CreatorPayout), int64(escrow.TaskID),
	)
	if err != nil {
		return fmt.Errorf("escrow repository: update %d: %w", escrow.TaskID, err)
	}
	return nil
}

// Get возвращает escrow задачи.
func (r *EscrowRepository) Get(ctx context.Context, taskID uint64) (*models.Escrow, error) {
	return common.GetByField[models.Escrow](ctx, r.tx, "escrows", "task_id", int64(taskID))
}

// SumHeld сумма средств в невыплаченных escrow.
func (r *EscrowRepository) SumHeld(ctx context.Context) (uint64, error) {
	sum, err := common.ScalarUint64(ctx, r.tx, `SELECT COALESCE(SUM(amount), 0) FROM escrows WHERE released = ?`, false)
	if err != nil {
		return 0, fmt.Errorf("escrow repository: sum held: %w", err)
	}
	return sum, nil
}

// FeePool текущий пул комиссий платформы.
func (r *EscrowRepository) FeePool(ctx context.Context) (uint64, error) {
	pool, err := common.ScalarUint64(ctx, r.tx, `SELECT fee_pool FROM platform_state WHERE id = 1`)
	if err != nil {
		return 0, fmt.Errorf("escrow repository: fee pool: %w", err)
	}
	return pool, nil
}

// SetFeePool записывает новое значение пула комиссий.
func (r *EscrowRepository) SetFeePool(ctx context.Context, amount uint64) error {
	if err := common.ExecAffected(ctx, r.tx, `UPDATE platform_state SET fee_pool = ? WHERE id = 1`, int64(amount)); err != nil {
		return fmt.Errorf("escrow repository: set fee pool: %w", err)
	}
	return nil
}
