package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/metrics"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/validation"
)

// CreateTaskInput параметры новой задачи.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Reward      uint64
	Deadline    uint64
}

// TaskService реестр задач. Каждый переход статуса вызывает escrow и репутацию
// от имени собственной идентичности реестра в той же транзакции.
type TaskService struct {
	uow        repository.UnitOfWork
	gate       *AccessGate
	escrow     *EscrowService
	reputation *ReputationService
	clock      chain.Clock
	policy     models.Policy
	registryID uuid.UUID
	publisher  events.Publisher
}

func NewTaskService(
	uow repository.UnitOfWork,
	gate *AccessGate,
	escrow *EscrowService,
	reputation *ReputationService,
	clock chain.Clock,
	policy models.Policy,
	registryID uuid.UUID,
	publisher events.Publisher,
) *TaskService {
	return &TaskService{
		uow:        uow,
		gate:       gate,
		escrow:     escrow,
		reputation: reputation,
		clock:      clock,
		policy:     policy,
		registryID: registryID,
		publisher:  publisher,
	}
}

// RegistryID идентичность, от имени которой реестр вызывает escrow и репутацию.
func (s *TaskService) RegistryID() uuid.UUID {
	return s.registryID
}

// CreateTask создаёт задачу и депонирует вознаграждение. Если депозит не удался,
// задача не сохраняется.
func (s *TaskService) CreateTask(ctx context.Context, caller uuid.UUID, in CreateTaskInput) (*models.Task, error) {
	if err := validation.ValidateTaskTitle(in.Title, s.policy.MaxTitleLength); err != nil {
		return nil, apperror.ErrInvalidTitle
	}
	if err := validation.ValidateTaskDescription(in.Description, s.policy.MaxDescriptionLength); err != nil {
		return nil, apperror.ErrInvalidDescription
	}
	if err := validation.ValidateTaskCategory(in.Category, s.policy.MaxCategoryLength); err != nil {
		return nil, apperror.ErrInvalidCategory
	}

	var task *models.Task
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		height := s.clock.Height()
		if in.Deadline <= height {
			return apperror.ErrDeadlinePassed
		}
		if in.Reward < s.policy.MinReward || in.Reward > s.policy.MaxReward {
			return apperror.ErrTaskInvalidAmount
		}

		id, err := tx.Tasks().NextID(ctx)
		if err != nil {
			return err
		}
		task = &models.Task{
			ID:            id,
			Creator:       caller,
			Title:         in.Title,
			Description:   in.Description,
			Category:      in.Category,
			Reward:        in.Reward,
			Deadline:      in.Deadline,
			Status:        models.TaskStatusOpen,
			CreatedHeight: height,
			UpdatedHeight: height,
		}
		if err := tx.Tasks().Insert(ctx, task); err != nil {
			return err
		}

		if _, err := s.escrow.Deposit(ctx, s.registryID, id, in.Reward, caller); err != nil {
			return err
		}
		if err := s.reputation.RecordTaskCreated(ctx, s.registryID, caller, in.Reward); err != nil {
			return err
		}

		return s.transitioned(ctx, tx, task, caller, models.EventTaskCreated, map[string]any{
			"reward":   in.Reward,
			"deadline": in.Deadline,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"task_id": task.ID,
		"creator": caller,
		"reward":  task.Reward,
	}).Info("task: задача создана")

	return task, nil
}

// AssignTask назначает исполнителя открытой задачи. Только автор.
func (s *TaskService) AssignTask(ctx context.Context, caller uuid.UUID, taskID uint64, worker uuid.UUID) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusOpen {
			return apperror.ErrInvalidStatus
		}
		if worker == uuid.Nil || worker == task.Creator {
			return apperror.ErrInvalidWorker
		}

		task.Worker = uuid.NullUUID{UUID: worker, Valid: true}
		if err := s.moveTo(ctx, tx, task, models.TaskStatusAssigned); err != nil {
			return err
		}
		if err := s.escrow.SetWorker(ctx, s.registryID, task.ID, worker); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskAssigned, map[string]any{"worker_id": worker})
	})
}

// SubmitWork сдаёт результат работы. Только назначенный исполнитель.
func (s *TaskService) SubmitWork(ctx context.Context, caller uuid.UUID, taskID uint64, submissionRef, note string) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsWorker(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusAssigned {
			return apperror.ErrInvalidStatus
		}
		if err := validation.ValidateSubmissionRef(submissionRef, s.policy.MaxSubmissionLength); err != nil {
			return apperror.ErrInvalidSubmission
		}
		if err := validation.ValidateNote("примечание", note, s.policy.MaxNoteLength); err != nil {
			return apperror.ErrInvalidSubmission
		}

		task.SubmissionRef = submissionRef
		task.SubmissionNote = note
		if err := s.moveTo(ctx, tx, task, models.TaskStatusSubmitted); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskSubmitted, map[string]any{"submission_ref": submissionRef})
	})
}

// ApproveTask принимает работу: выплачивает вознаграждение и начисляет репутацию исполнителю.
func (s *TaskService) ApproveTask(ctx context.Context, caller uuid.UUID, taskID, rating uint64) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusSubmitted {
			return apperror.ErrInvalidStatus
		}
		if rating < MinRating || rating > MaxRating {
			return apperror.ErrTaskInvalidRating
		}

		if err := s.moveTo(ctx, tx, task, models.TaskStatusApproved); err != nil {
			return err
		}
		if _, err := s.escrow.ReleaseFunds(ctx, s.registryID, task.ID); err != nil {
			return err
		}
		worker := task.Worker.UUID
		if err := s.reputation.RecordCompletion(ctx, s.registryID, worker, true, rating); err != nil {
			return err
		}
		if err := s.reputation.RecordTaskEarned(ctx, s.registryID, worker, task.Reward); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskApproved, map[string]any{"rating": rating})
	})
}

// RejectTask отклоняет работу. Средства остаются в escrow.
func (s *TaskService) RejectTask(ctx context.Context, caller uuid.UUID, taskID uint64, reason string) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusSubmitted {
			return apperror.ErrInvalidStatus
		}
		if err := validation.ValidateNote("причина отказа", reason, s.policy.MaxNoteLength); err != nil {
			return apperror.ErrInvalidReason
		}

		task.RejectionReason = reason
		task.RejectedHeight = s.clock.Height()
		if err := s.moveTo(ctx, tx, task, models.TaskStatusRejected); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskRejected, map[string]any{"reason": reason})
	})
}

// OpenDispute открывает спор. Доступно автору и исполнителю.
func (s *TaskService) OpenDispute(ctx context.Context, caller uuid.UUID, taskID uint64, reason string) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) && !task.IsWorker(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		switch task.Status {
		case models.TaskStatusAssigned, models.TaskStatusSubmitted, models.TaskStatusRejected:
		default:
			return apperror.ErrInvalidStatus
		}
		if err := validation.ValidateNote("причина спора", reason, s.policy.MaxNoteLength); err != nil {
			return apperror.ErrInvalidReason
		}

		escrow, err := tx.Escrows().Get(ctx, task.ID)
		if err != nil {
			return notFound(err, apperror.ErrEscrowNotFound)
		}
		if escrow.DisputeOpened {
			return apperror.ErrTaskDisputeAlreadyOpened
		}

		task.DisputeReason = reason
		task.DisputeOpenedBy = uuid.NullUUID{UUID: caller, Valid: true}
		if err := s.moveTo(ctx, tx, task, models.TaskStatusDisputed); err != nil {
			return err
		}
		if err := s.escrow.OpenDispute(ctx, s.registryID, task.ID); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskDisputed, map[string]any{"reason": reason})
	})
}

// CancelTask отменяет задачу без исполнителя и возвращает вознаграждение автору.
// Комиссия платформы не возвращается.
func (s *TaskService) CancelTask(ctx context.Context, caller uuid.UUID, taskID uint64) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusOpen {
			return apperror.ErrInvalidStatus
		}

		if err := s.moveTo(ctx, tx, task, models.TaskStatusCancelled); err != nil {
			return err
		}
		if _, err := s.escrow.RefundCreator(ctx, s.registryID, task.ID); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskCancelled, nil)
	})
}

// ResolveDispute разрешает спор по задаче. Доступно вызывающим из списка arbiter.
// Исполнитель считается выигравшим спор при доле от 50%.
func (s *TaskService) ResolveDispute(ctx context.Context, caller uuid.UUID, taskID, workerPercentage uint64) (*models.DisputeSplit, error) {
	var split *models.DisputeSplit
	_, err := s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if err := s.gate.require(ctx, tx, models.ScopeArbiter, caller); err != nil {
			return err
		}
		if task.Status != models.TaskStatusDisputed {
			return apperror.ErrInvalidStatus
		}
		if workerPercentage > 100 {
			return apperror.ErrTaskInvalidPercentage
		}

		if err := s.moveTo(ctx, tx, task, models.TaskStatusResolved); err != nil {
			return err
		}
		var err error
		if split, err = s.escrow.ResolveDispute(ctx, s.registryID, task.ID, workerPercentage); err != nil {
			return err
		}

		workerWon := workerPercentage >= 50
		if err := s.reputation.RecordDispute(ctx, s.registryID, task.Worker.UUID, true, workerWon); err != nil {
			return err
		}
		if err := s.reputation.RecordDispute(ctx, s.registryID, task.Creator, false, !workerWon); err != nil {
			return err
		}
		if split.WorkerAmount > 0 {
			if err := s.reputation.RecordTaskEarned(ctx, s.registryID, task.Worker.UUID, split.WorkerAmount); err != nil {
				return err
			}
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskResolved, split)
	})
	if err != nil {
		return nil, err
	}
	return split, nil
}

// ReclaimRejected возвращает автору вознаграждение по отклонённой задаче после окна споров.
// Доступно только при политике refund_after_window.
func (s *TaskService) ReclaimRejected(ctx context.Context, caller uuid.UUID, taskID uint64) (*models.Task, error) {
	return s.mutate(ctx, taskID, func(ctx context.Context, tx repository.Tx, task *models.Task) error {
		if !task.IsCreator(caller) {
			return apperror.ErrTaskNotAuthorized
		}
		if task.Status != models.TaskStatusRejected {
			return apperror.ErrInvalidStatus
		}
		if s.policy.RejectPolicy != models.RejectPolicyRefundAfterWindow {
			return apperror.ErrRefundUnavailable
		}
		if s.clock.Height() < task.RejectedHeight+s.policy.DisputeWindowBlocks {
			return apperror.ErrRefundUnavailable
		}

		if err := s.moveTo(ctx, tx, task, models.TaskStatusRefunded); err != nil {
			return err
		}
		if _, err := s.escrow.RefundCreator(ctx, s.registryID, task.ID); err != nil {
			return err
		}
		return s.transitioned(ctx, tx, task, caller, models.EventTaskRefunded, nil)
	})
}

// GetTask возвращает задачу.
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		task, err = tx.Tasks().Get(ctx, taskID)
		return notFound(err, apperror.ErrTaskNotFound)
	})
	return task, err
}

// GetTaskCount количество созданных задач.
func (s *TaskService) GetTaskCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		count, err = tx.Tasks().Count(ctx)
		return err
	})
	return count, err
}

// IsTaskCreator для несуществующей задачи возвращает false.
func (s *TaskService) IsTaskCreator(ctx context.Context, taskID uint64, user uuid.UUID) (bool, error) {
	task, err := s.GetTask(ctx, taskID)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return task.IsCreator(user), nil
}

// IsTaskWorker для несуществующей задачи возвращает false.
func (s *TaskService) IsTaskWorker(ctx context.Context, taskID uint64, user uuid.UUID) (bool, error) {
	task, err := s.GetTask(ctx, taskID)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return task.IsWorker(user), nil
}

// ListTasks выборка задач по фильтру.
func (s *TaskService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.ErrInvalidInput
	}
	filter.Limit, filter.Offset = NormalizePage(filter.Limit, filter.Offset)

	var tasks []models.Task
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		tasks, err = tx.Tasks().List(ctx, filter)
		return err
	})
	return tasks, err
}

// TaskEvents история задачи из журнала событий.
func (s *TaskService) TaskEvents(ctx context.Context, taskID uint64) ([]models.Event, error) {
	var history []models.Event
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Tasks().Get(ctx, taskID); err != nil {
			return notFound(err, apperror.ErrTaskNotFound)
		}
		var err error
		history, err = tx.Events().ListByTask(ctx, taskID)
		return err
	})
	return history, err
}

// mutate загружает задачу в транзакции записи и применяет fn.
func (s *TaskService) mutate(ctx context.Context, taskID uint64, fn func(ctx context.Context, tx repository.Tx, task *models.Task) error) (*models.Task, error) {
	var task *models.Task
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if task, err = tx.Tasks().Get(ctx, taskID); err != nil {
			return notFound(err, apperror.ErrTaskNotFound)
		}
		return fn(ctx, tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// moveTo меняет статус задачи по таблице переходов и сохраняет её.
func (s *TaskService) moveTo(ctx context.Context, tx repository.Tx, task *models.Task, status models.TaskStatus) error {
	if !task.Status.CanTransitionTo(status) {
		return apperror.ErrInvalidStatus
	}
	task.Status = status
	task.UpdatedHeight = s.clock.Height()
	if err := tx.Tasks().Update(ctx, task); err != nil {
		return err
	}
	tx.OnCommit(func() {
		metrics.TaskTransitions.WithLabelValues(string(status)).Inc()
	})
	return nil
}

// transitioned записывает событие задачи в журнал.
func (s *TaskService) transitioned(ctx context.Context, tx repository.Tx, task *models.Task, actor uuid.UUID, kind string, data any) error {
	var body string
	if data != nil {
		body = payload(data)
	}
	return recordEvent(ctx, tx, s.publisher, models.Event{
		TaskID:     task.ID,
		Kind:       kind,
		Actor:      actor,
		Height:     task.UpdatedHeight,
		Payload:    body,
		Recipients: participants(task.Creator, task.Worker),
	})
}
