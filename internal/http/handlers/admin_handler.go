package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// AdminHandler операции владельца платформы: списки доступа, пополнение, сверка.
type AdminHandler struct {
	gate    *service.AccessGate
	wallets *service.WalletService
	audit   *service.AuditService
}

func NewAdminHandler(gate *service.AccessGate, wallets *service.WalletService, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{gate: gate, wallets: wallets, audit: audit}
}

// ListAllowList GET /api/admin/allowlists/:scope
func (h *AdminHandler) ListAllowList(c *gin.Context) {
	scope := models.AccessScope(c.Param("scope"))
	entries, err := h.gate.List(c.Request.Context(), scope)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AllowListResponse{Scope: scope, Entries: entries})
}

// IsAuthorized GET /api/admin/allowlists/:scope/:identity
func (h *AdminHandler) IsAuthorized(c *gin.Context) {
	scope := models.AccessScope(c.Param("scope"))
	identity, err := common.ParseUUIDParam(c, "identity")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	ok, err := h.gate.IsAuthorized(c.Request.Context(), scope, identity)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthorizedResponse{Scope: scope, Identity: identity, Authorized: ok})
}

// Authorize POST /api/admin/allowlists/:scope/:identity
func (h *AdminHandler) Authorize(c *gin.Context) {
	h.changeAllowList(c, h.gate.Authorize, true)
}

// Revoke DELETE /api/admin/allowlists/:scope/:identity
func (h *AdminHandler) Revoke(c *gin.Context) {
	h.changeAllowList(c, h.gate.Revoke, false)
}

// changeAllowList общий разбор запроса на изменение списка доступа.
func (h *AdminHandler) changeAllowList(c *gin.Context, op func(ctx context.Context, caller uuid.UUID, scope models.AccessScope, identity uuid.UUID) error, authorized bool) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	scope := models.AccessScope(c.Param("scope"))
	identity, err := common.ParseUUIDParam(c, "identity")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if err := op(c.Request.Context(), caller, scope, identity); err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthorizedResponse{Scope: scope, Identity: identity, Authorized: authorized})
}

// Fund POST /api/admin/wallets/:userId/fund
func (h *AdminHandler) Fund(c *gin.Context) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	userID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.FundRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	balance, err := h.wallets.Fund(c.Request.Context(), caller, userID, req.Amount)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Audit GET /api/admin/audit
func (h *AdminHandler) Audit(c *gin.Context) {
	caller, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if caller != h.gate.Owner() {
		common.RespondError(c, apperror.ErrForbidden)
		return
	}

	report, err := h.audit.Check(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
