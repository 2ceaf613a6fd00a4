package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// EscrowHandler HTTP слой escrow и пула комиссий.
// Изменяющие маршруты доступны только вызывающим из списка escrow.
type EscrowHandler struct {
	escrow *service.EscrowService
}

func NewEscrowHandler(escrow *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrow: escrow}
}

// Get GET /api/escrows/:taskId
func (h *EscrowHandler) Get(c *gin.Context) {
	taskID, err := common.ParseTaskID(c, "taskId")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	escrow, err := h.escrow.GetEscrow(c.Request.Context(), taskID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// Deposit POST /api/escrows/:taskId/deposit
func (h *EscrowHandler) Deposit(c *gin.Context) {
	var req dto.EscrowDepositRequest
	h.privileged(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		creator, err := common.ParseUUID(req.CreatorID, "creator_id")
		if err != nil {
			return nil, err
		}
		return h.escrow.Deposit(c.Request.Context(), caller, taskID, req.Reward, creator)
	})
}

// SetWorker POST /api/escrows/:taskId/worker
func (h *EscrowHandler) SetWorker(c *gin.Context) {
	var req dto.EscrowWorkerRequest
	h.privileged(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		worker, err := common.ParseUUID(req.WorkerID, "worker_id")
		if err != nil {
			return nil, err
		}
		if err := h.escrow.SetWorker(c.Request.Context(), caller, taskID, worker); err != nil {
			return nil, err
		}
		return h.escrow.GetEscrow(c.Request.Context(), taskID)
	})
}

// Release POST /api/escrows/:taskId/release
func (h *EscrowHandler) Release(c *gin.Context) {
	h.privileged(c, nil, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.escrow.ReleaseFunds(c.Request.Context(), caller, taskID)
	})
}

// Refund POST /api/escrows/:taskId/refund
func (h *EscrowHandler) Refund(c *gin.Context) {
	h.privileged(c, nil, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.escrow.RefundCreator(c.Request.Context(), caller, taskID)
	})
}

// Dispute POST /api/escrows/:taskId/dispute
func (h *EscrowHandler) Dispute(c *gin.Context) {
	h.privileged(c, nil, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		if err := h.escrow.OpenDispute(c.Request.Context(), caller, taskID); err != nil {
			return nil, err
		}
		return h.escrow.GetEscrow(c.Request.Context(), taskID)
	})
}

// Resolve POST /api/escrows/:taskId/resolve
func (h *EscrowHandler) Resolve(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	h.privileged(c, &req, func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error) {
		return h.escrow.ResolveDispute(c.Request.Context(), caller, taskID, req.WorkerPercentage)
	})
}

// Quote GET /api/fees/quote?amount=
func (h *EscrowHandler) Quote(c *gin.Context) {
	amount, err := common.ParseUintQuery(c, "amount")
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.escrow.Quote(amount))
}

// Pool GET /api/fees/pool
func (h *EscrowHandler) Pool(c *gin.Context) {
	pool, err := h.escrow.GetPlatformFees(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FeePoolResponse{FeePool: pool})
}

// Withdraw POST /api/fees/withdraw
func (h *EscrowHandler) Withdraw(c *gin.Context) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.WithdrawFeesRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	recipient, err := common.ParseUUID(req.RecipientID, "recipient_id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	amount, err := h.escrow.WithdrawPlatformFees(c.Request.Context(), caller, recipient)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.WithdrawFeesResponse{RecipientID: recipient, Amount: amount})
}

func (h *EscrowHandler) privileged(c *gin.Context, req any, op func(c *gin.Context, caller uuid.UUID, taskID uint64) (any, error)) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	taskID, err := common.ParseTaskID(c, "taskId")
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
