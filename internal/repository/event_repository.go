package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

const eventColumns = `seq, task_id, kind, actor_id, height, payload, created_at`

type EventRepository struct {
	tx *sqlx.Tx
}

func NewEventRepository(tx *sqlx.Tx) *EventRepository {
	return &EventRepository{tx: tx}
}

// Append добавляет событие в журнал и присваивает ему следующий номер.
func (r *EventRepository) Append(ctx context.Context, e *models.Event) error {
	seq, err := common.ScalarUint64(ctx, r.tx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_events`)
	if err != nil {
		return fmt.Errorf("event repository: next seq: %w", err)
	}
	query := r.tx.Rebind(`INSERT INTO ledger_events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.tx.ExecContext(ctx, query,
		int64(seq), int64(e.TaskID), e.Kind, e.Actor, int64(e.Height), e.Payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("event repository: append %s: %w", e.Kind, err)
	}
	e.Seq = seq
	return nil
}

// ListByTask возвращает историю задачи.
func (r *EventRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.Event, error) {
	events := []models.Event{}
	query := r.tx.Rebind(`SELECT ` + eventColumns + ` FROM ledger_events WHERE task_id = ? ORDER BY seq`)
	if err := r.tx.SelectContext(ctx, &events, query, int64(taskID)); err != nil {
		return nil, fmt.Errorf("event repository: list by task %d: %w", taskID, err)
	}
	return events, nil
}

// ListAfter возвращает события с номером больше afterSeq.
func (r *EventRepository) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]models.Event, error) {
	events := []models.Event{}
	query := r.tx.Rebind(`SELECT ` + eventColumns + ` FROM ledger_events WHERE seq > ? ORDER BY seq LIMIT ?`)
	if err := r.tx.SelectContext(ctx, &events, query, int64(afterSeq), limit); err != nil {
		return nil, fmt.Errorf("event repository: list after %d: %w", afterSeq, err)
	}
	return events, nil
}
