package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// ContextUserIDKey ключ идентичности вызывающего в gin.Context.
const ContextUserIDKey = "userID"

var errInvalidToken = apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден или истёк")

// AuthMiddleware требует access токен в заголовке Authorization.
// Subject токена становится вызывающим для всех операций реестра:
// создатель, исполнитель, арбитр и владелец различаются только им.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		userID, err := tokens.ParseAccess(raw)
		if err != nil {
			abortWithError(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
