package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/http/middleware"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
)

// CurrentUserID extracts the caller identity from Gin context
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ParseUUIDParam parses UUID from URL parameter
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	return ParseUUID(c.Param(paramName), paramName)
}

// ParseUUID parses a UUID taken from a request field
func ParseUUID(raw, field string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeBadRequest, "неверный формат "+field)
	}
	return parsed, nil
}

// ParseTaskID parses a task id from URL parameter
func ParseTaskID(c *gin.Context, paramName string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.New(apperror.ErrCodeBadRequest, "неверный номер задачи")
	}
	return id, nil
}

// ParseUintQuery parses an unsigned integer query parameter
func ParseUintQuery(c *gin.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0, apperror.New(apperror.ErrCodeBadRequest, "параметр "+name+" должен быть неотрицательным целым")
	}
	return v, nil
}

// Pagination reads limit/offset query parameters
func Pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}

// BindJSON binds JSON request body
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "ошибка валидации запроса")
	}
	return nil
}

// RespondError hands the error to middleware.ErrorHandler
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// RespondJSON sends a JSON response with the given status code and data
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
