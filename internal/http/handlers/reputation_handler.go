package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// ReputationHandler HTTP слой репутации.
type ReputationHandler struct {
	reputation *service.ReputationService
}

func NewReputationHandler(reputation *service.ReputationService) *ReputationHandler {
	return &ReputationHandler{reputation: reputation}
}

// Get GET /api/reputation/:userId
func (h *ReputationHandler) Get(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	rep, err := h.reputation.GetReputation(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// RecordCompletion POST /api/reputation/:userId/completion
func (h *ReputationHandler) RecordCompletion(c *gin.Context) {
	var req dto.RecordCompletionRequest
	h.record(c, &req, func(c *gin.Context, caller, user uuid.UUID) error {
		return h.reputation.RecordCompletion(c.Request.Context(), caller, user, req.IsWorker, req.Rating)
	})
}

// RecordCreated POST /api/reputation/:userId/created
func (h *ReputationHandler) RecordCreated(c *gin.Context) {
	var req dto.RecordAmountRequest
	h.record(c, &req, func(c *gin.Context, caller, user uuid.UUID) error {
		return h.reputation.RecordTaskCreated(c.Request.Context(), caller, user, req.Amount)
	})
}

// RecordEarned POST /api/reputation/:userId/earned
func (h *ReputationHandler) RecordEarned(c *gin.Context) {
	var req dto.RecordAmountRequest
	h.record(c, &req, func(c *gin.Context, caller, user uuid.UUID) error {
		return h.reputation.RecordTaskEarned(c.Request.Context(), caller, user, req.Amount)
	})
}

// RecordDispute POST /api/reputation/:userId/dispute
func (h *ReputationHandler) RecordDispute(c *gin.Context) {
	var req dto.RecordDisputeRequest
	h.record(c, &req, func(c *gin.Context, caller, user uuid.UUID) error {
		return h.reputation.RecordDispute(c.Request.Context(), caller, user, req.IsWorker, req.Won)
	})
}

// record выполняет привилегированную запись и возвращает обновлённую репутацию.
func (h *ReputationHandler) record(c *gin.Context, req any, op func(c *gin.Context, caller, user uuid.UUID) error) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	user, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if err := common.BindJSON(c, req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := op(c, caller, user); err != nil {
		common.RespondError(c, err)
		return
	}

	rep, err := h.reputation.GetReputation(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
