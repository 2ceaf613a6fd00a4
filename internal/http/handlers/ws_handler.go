package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
	"github.com/ignatzorin/taskbounty-backend/internal/ws"
)

// WSHandler подписка на события реестра по WebSocket.
// Пользователь получает события задач, в которых он создатель или исполнитель.
type WSHandler struct {
	hub      *ws.Hub
	tokens   *service.TokenManager
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт хэндлер. Браузерные подключения принимаются только
// с origins из allowedOrigins, клиенты без заголовка Origin пропускаются.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Handle GET /api/ws?token=... (или заголовок Authorization: Bearer)
func (h *WSHandler) Handle(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		raw = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if raw == "" {
		common.RespondError(c, apperror.ErrUnauthorized)
		return
	}

	userID, err := h.tokens.ParseAccess(raw)
	if err != nil {
		common.RespondError(c, apperror.New(apperror.ErrCodeUnauthorized, "невалидный access токен"))
		return
	}

	// Upgrade сам отвечает клиенту при ошибке
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Debug("ws: upgrade отклонён")
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)
	client.Run(c.Request.Context())
}
