package models

import (
	"github.com/google/uuid"
)

// TaskStatus статус задачи в жизненном цикле реестра.
type TaskStatus string

// Статусы задач
const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusApproved  TaskStatus = "approved"
	TaskStatusRejected  TaskStatus = "rejected"
	TaskStatusDisputed  TaskStatus = "disputed"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusResolved  TaskStatus = "resolved"
	TaskStatusRefunded  TaskStatus = "refunded"
)

// taskTransitions описывает все допустимые переходы между статусами.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:      {TaskStatusAssigned, TaskStatusCancelled},
	TaskStatusAssigned:  {TaskStatusSubmitted, TaskStatusDisputed},
	TaskStatusSubmitted: {TaskStatusApproved, TaskStatusRejected, TaskStatusDisputed},
	TaskStatusRejected:  {TaskStatusDisputed, TaskStatusRefunded},
	TaskStatusDisputed:  {TaskStatusResolved},
	TaskStatusApproved:  {},
	TaskStatusCancelled: {},
	TaskStatusResolved:  {},
	TaskStatusRefunded:  {},
}

// IsValid проверяет, что статус известен реестру.
func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// CanTransitionTo проверяет, разрешён ли переход в newStatus.
func (s TaskStatus) CanTransitionTo(newStatus TaskStatus) bool {
	for _, status := range taskTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal возвращает true для статусов без исходящих переходов.
func (s TaskStatus) IsTerminal() bool {
	return s.IsValid() && len(taskTransitions[s]) == 0
}

// Task описывает оплачиваемую задачу.
// Reward фиксируется при создании и больше не меняется.
type Task struct {
	ID              uint64        `db:"id" json:"id"`
	Creator         uuid.UUID     `db:"creator_id" json:"creator_id"`
	Worker          uuid.NullUUID `db:"worker_id" json:"worker_id"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	Category        string        `db:"category" json:"category"`
	Reward          uint64        `db:"reward" json:"reward"`
	Deadline        uint64        `db:"deadline" json:"deadline"`
	Status          TaskStatus    `db:"status" json:"status"`
	SubmissionRef   string        `db:"submission_ref" json:"submission_ref,omitempty"`
	SubmissionNote  string        `db:"submission_note" json:"submission_note,omitempty"`
	RejectionReason string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DisputeReason   string        `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputeOpenedBy uuid.NullUUID `db:"dispute_opened_by" json:"dispute_opened_by"`
	CreatedHeight   uint64        `db:"created_height" json:"created_height"`
	UpdatedHeight   uint64        `db:"updated_height" json:"updated_height"`
	RejectedHeight  uint64        `db:"rejected_height" json:"rejected_height,omitempty"`
}

// IsCreator проверяет, является ли пользователь автором задачи.
func (t *Task) IsCreator(user uuid.UUID) bool {
	return t.Creator == user
}

// IsWorker проверяет, назначен ли пользователь исполнителем задачи.
func (t *Task) IsWorker(user uuid.UUID) bool {
	return t.Worker.Valid && t.Worker.UUID == user
}

// TaskFilter параметры выборки задач.
type TaskFilter struct {
	Status  TaskStatus
	Creator uuid.NullUUID
	Worker  uuid.NullUUID
	Limit   int
	Offset  int
}
