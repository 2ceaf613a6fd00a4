package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/metrics"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Ошибки реестра отдаются клиенту с устойчивым кодом, остальные маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := errorResponse(err)

		fields := logrus.Fields{
			"error":  err.Error(),
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": status,
		}
		if body.Num != 0 {
			metrics.LedgerErrors.WithLabelValues(strconv.FormatUint(uint64(body.Num), 10)).Inc()
		}
		if status >= http.StatusInternalServerError {
			logger.Log.WithFields(fields).Error("Request error")
		} else {
			logger.Log.WithFields(fields).Debug("Request rejected")
		}

		c.JSON(status, body)
	}
}

// errorResponse переводит ошибку в HTTP статус и тело ответа.
func errorResponse(err error) (int, dto.ErrorResponse) {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, dto.ErrorResponse{
			Error: "внутренняя ошибка сервера",
			Code:  string(apperror.ErrCodeInternal),
		}
	}

	code := appErr.Name
	if code == "" {
		code = string(appErr.Code)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = "внутренняя ошибка сервера"
	}
	return status, dto.ErrorResponse{Error: message, Code: code, Num: appErr.Num}
}

// abortWithError прерывает цепочку и отдаёт ошибку в ErrorHandler.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
