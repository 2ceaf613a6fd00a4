package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: router.GET("/reputation/:userId", UUIDValidator("userId"), handler.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			abortWithError(c, apperror.New(apperror.ErrCodeBadRequest, "параметр "+paramName+" должен быть валидным UUID"))
			return
		}
		c.Next()
	}
}

// TaskIDValidator проверяет, что параметр является номером задачи (целое число от 1).
func TaskIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 64)
		if err != nil || id == 0 {
			abortWithError(c, apperror.New(apperror.ErrCodeBadRequest, "параметр "+paramName+" должен быть номером задачи"))
			return
		}
		c.Next()
	}
}
