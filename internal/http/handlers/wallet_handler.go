package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

type WalletHandler struct {
	wallets *service.WalletService
}

func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetBalance GET /api/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	balance, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// ListTransactions GET /api/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	limit, offset := service.NormalizePage(common.Pagination(c))
	txs, err := h.wallets.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[models.Transaction]{Items: txs, Limit: limit, Offset: offset})
}

// Deposit POST /api/wallet/deposit (только development)
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.FundRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	balance, err := h.wallets.SelfFund(c.Request.Context(), userID, req.Amount)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
