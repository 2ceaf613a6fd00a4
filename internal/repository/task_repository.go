package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

const taskColumns = `id, creator_id, worker_id, title, description, category, reward, deadline, status,
	submission_ref, submission_note, rejection_reason, dispute_reason, dispute_opened_by,
	created_height, updated_height, rejected_height`

type TaskRepository struct {
	tx *sqlx.Tx
}

func NewTaskRepository(tx *sqlx.Tx) *TaskRepository {
	return &TaskRepository{tx: tx}
}

// NextID возвращает следующий идентификатор задачи. Задачи не удаляются,
// поэтому идентификаторы идут подряд и не переиспользуются.
func (r *TaskRepository) NextID(ctx context.Context) (uint64, error) {
	id, err := common.ScalarUint64(ctx, r.tx, `SELECT COALESCE(MAX(id), 0) + 1 FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("task repository: next id: %w", err)
	}
	return id, nil
}

// Insert сохраняет новую задачу.
func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	query := r.tx.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.tx.ExecContext(ctx, query,
		int64(task.ID), task.Creator, task.Worker, task.Title, task.Description, task.Category,
		int64(task.Reward), int64(task.Deadline), string(task.Status),
		task.SubmissionRef, task.SubmissionNote, task.RejectionReason, task.DisputeReason, task.DisputeOpenedBy,
		int64(task.CreatedHeight), int64(task.UpdatedHeight), int64(task.RejectedHeight),
	)
	if err != nil {
		return fmt.Errorf("task repository: insert %d: %w", task.ID, err)
	}
	return nil
}

// Update сохраняет изменяемые поля задачи. Reward и автор не меняются.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	err := common.ExecAffected(ctx, r.tx, `
		UPDATE tasks SET worker_id = ?, status = ?, submission_ref = ?, submission_note = ?,
			rejection_reason = ?, dispute_reason = ?, dispute_opened_by = ?,
			updated_height = ?, rejected_height = ?
		WHERE id = ?
	`,
		task.Worker, string(task.Status), task.SubmissionRef, task.SubmissionNote,
		task.RejectionReason, task.DisputeReason, task.DisputeOpenedBy,
		int64(task.UpdatedHeight), int64(task.RejectedHeight), int64(task.ID),
	)
	if err != nil {
		return fmt.Errorf("task repository: update %d: %w", task.ID, err)
	}
	return nil
}

// Get возвращает задачу по идентификатору.
func (r *TaskRepository) Get(ctx context.Context, id uint64) (*models.Task, error) {
	return common.GetByField[models.Task](ctx, r.tx, "tasks", "id", int64(id))
}

// Count возвращает количество созданных задач.
func (r *TaskRepository) Count(ctx context.Context) (uint64, error) {
	count, err := common.ScalarUint64(ctx, r.tx, `SELECT COUNT(*) FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("task repository: count: %w", err)
	}
	return count, nil
}

// List возвращает задачи по фильтру в порядке создания.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Creator.Valid {
		conds = append(conds, "creator_id = ?")
		args = append(args, filter.Creator.UUID)
	}
	if filter.Worker.Valid {
		conds = append(conds, "worker_id = ?")
		args = append(args, filter.Worker.UUID)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	tasks := make([]models.Task, 0, filter.Limit)
	if err := r.tx.SelectContext(ctx, &tasks, r.tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("task repository: list: %w", err)
	}
	return tasks, nil
}
