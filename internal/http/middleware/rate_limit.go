package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
)

var errTooManyRequests = &apperror.AppError{
	Code:       "TOO_MANY_REQUESTS",
	Message:    "слишком много запросов, попробуйте позже",
	HTTPStatus: http.StatusTooManyRequests,
}

// RateLimitMiddleware ограничивает количество запросов.
// Аутентифицированные вызовы считаются по идентичности, остальные по IP.
// По умолчанию: 10 запросов в минуту.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		lctx, err := instance.Get(c, rateKey(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			abortWithError(c, errTooManyRequests)
			return
		}

		c.Next()
	}
}

func rateKey(c *gin.Context) string {
	if raw, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := raw.(uuid.UUID); ok {
			return "id:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}
