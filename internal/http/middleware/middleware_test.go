package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestErrorHandler(t *testing.T) {
	hook := test.NewLocal(logger.Log)
	logger.Discard()

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/coded", func(c *gin.Context) { abortWithError(c, apperror.ErrTaskNotFound) })
	r.GET("/wrapped", func(c *gin.Context) {
		abortWithError(c, apperror.Wrap(errors.New("pq: timeout"), apperror.ErrCodeDatabaseError, "ошибка базы"))
	})
	r.GET("/plain", func(c *gin.Context) { abortWithError(c, errors.New("секретная деталь")) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := serve(r, http.MethodGet, "/coded", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "TaskNotFound", body.Code)
	assert.Equal(t, uint32(301), body.Num)
	assert.Equal(t, apperror.ErrTaskNotFound.Message, body.Error)

	hook.Reset()
	w = serve(r, http.MethodGet, "/wrapped", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decodeError(t, w)
	assert.Equal(t, "DATABASE_ERROR", body.Code)
	assert.NotContains(t, body.Error, "pq")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data["error"], "pq: timeout")

	w = serve(r, http.MethodGet, "/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotContains(t, body.Error, "секретная")

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestParamValidators(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/tasks/:id", TaskIDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/users/:userId", UUIDValidator("userId"), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path   string
		status int
	}{
		{"/tasks/1", http.StatusOK},
		{"/tasks/18446744073709551615", http.StatusOK},
		{"/tasks/0", http.StatusBadRequest},
		{"/tasks/-1", http.StatusBadRequest},
		{"/tasks/18446744073709551616", http.StatusBadRequest},
		{"/tasks/abc", http.StatusBadRequest},
		{"/users/" + uuid.NewString(), http.StatusOK},
		{"/users/not-a-uuid", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := serve(r, http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusBadRequest {
				assert.Equal(t, "BAD_REQUEST", decodeError(t, w).Code)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := service.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := uuid.New()
	pair, err := tokens.GeneratePair(&models.Account{ID: user})
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		id, _ := c.Get(ContextUserIDKey)
		c.String(http.StatusOK, id.(uuid.UUID).String())
	})

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Token " + pair.AccessToken}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// refresh токен подписан другим секретом
	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + pair.RefreshToken}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + pair.AccessToken}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.String(), w.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"http://localhost:3000"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"http://evil.test"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-User"); raw != "" {
			c.Set(ContextUserIDKey, uuid.MustParse(raw))
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodGet, "/x", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, w).Code)

	// идентичность считается отдельно от IP
	w = serve(r, http.MethodGet, "/x", http.Header{"X-User": {uuid.NewString()}})
	assert.Equal(t, http.StatusOK, w.Code)
}
