package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// TaskHandler HTTP слой реестра задач.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.CreateTaskRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), caller, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Reward:      req.Reward,
		Deadline:    req.Deadline,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// List GET /api/tasks?status=&creator=&worker=&limit=&offset=
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{Status: models.TaskStatus(c.Query("status"))}
	filter.Limit, filter.Offset = service.NormalizePage(common.Pagination(c))

	if raw := c.Query("creator"); raw != "" {
		id, err := common.ParseUUID(raw, "creator")
		if err != nil {
			common.RespondError(c, err)
			return
		}
		filter.Creator = uuid.NullUUID{UUID: id, Valid: true}
	}
	if raw := c.Query("worker"); raw != "" {
		id, err := common.ParseUUID(raw, "worker")
		if err != nil {
			common.RespondError(c, err)
			return
		}
		filter.Worker = uuid.NullUUID{UUID: id, Valid: true}
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[models.Task]{Items: tasks, Limit: filter.Limit, Offset: filter.Offset})
}

// Count GET /api/tasks/count
func (h *TaskHandler) Count(c *gin.Context) {
	count, err := h.tasks.GetTaskCount(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// Get GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, err := common.ParseTaskID(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), taskID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Roles GET /api/tasks/:id/roles/:userId
func (h *TaskHandler) Roles(c *gin.Context) {
	taskID, err := common.ParseTaskID(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}
	userID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	isCreator, err := h.tasks.IsTaskCreator(ctx, taskID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	isWorker, err := h.tasks.IsTaskWorker(ctx, taskID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RolesResponse{
		TaskID:    taskID,
		UserID:    userID,
		IsCreator: isCreator,
		IsWorker:  isWorker,
	})
}

// Events GET /api/tasks/:id/events
func (h *TaskHandler) Events(c *gin.Context) {
	taskID, err := common.ParseTaskID(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	history, err := h.tasks.TaskEvents(c.Request.Context(), taskID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "events": history})
}

// Assign POST /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	var req dto.AssignTaskRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		worker, err := common.ParseUUID(req.WorkerID, "worker_id")
		if err != nil {
			return nil, err
		}
		return h.tasks.AssignTask(c.Request.Context(), caller, taskID, worker)
	})
}

// Submit POST /api/tasks/:id/submit
func (h *TaskHandler) Submit(c *gin.Context) {
	var req dto.SubmitWorkRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.SubmitWork(c.Request.Context(), caller, taskID, req.SubmissionRef, req.Note)
	})
}

// Approve POST /api/tasks/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	var req dto.ApproveTaskRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.ApproveTask(c.Request.Context(), caller, taskID, req.Rating)
	})
}

// Reject POST /api/tasks/:id/reject
func (h *TaskHandler) Reject(c *gin.Context) {
	var req dto.ReasonRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.RejectTask(c.Request.Context(), caller, taskID, req.Reason)
	})
}

// Dispute POST /api/tasks/:id/dispute
func (h *TaskHandler) Dispute(c *gin.Context) {
	var req dto.ReasonRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.OpenDispute(c.Request.Context(), caller, taskID, req.Reason)
	})
}

// Cancel POST /api/tasks/:id/cancel
func (h *TaskHandler) Cancel(c *gin.Context) {
	h.transition(c, nil, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.CancelTask(c.Request.Context(), caller, taskID)
	})
}

// Reclaim POST /api/tasks/:id/reclaim
func (h *TaskHandler) Reclaim(c *gin.Context) {
	h.transition(c, nil, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.ReclaimRejected(c.Request.Context(), caller, taskID)
	})
}

// Resolve POST /api/tasks/:id/resolve
func (h *TaskHandler) Resolve(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	h.transition(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.tasks.ResolveDispute(c.Request.Context(), caller, taskID, req.WorkerPercentage)
	})
}

// transition общий разбор запроса на переход задачи.
// req может быть nil для операций без тела.
func (h *TaskHandler) transition(c *gin.Context, req any, op func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error)) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	taskID, err := common.ParseTaskID(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if req != nil {
		if err := common.BindJSON(c, req); err != nil {
			common.RespondError(c, err)
			return
		}
	}

	result, err := op(c, caller, taskID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
