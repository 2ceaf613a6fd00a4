package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/memory"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
	"github.com/ignatzorin/taskbounty-backend/internal/storage"
	"github.com/ignatzorin/taskbounty-backend/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	tokens *service.TokenManager
	ledger *app.Ledger
	owner  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:             "development",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
		OwnerID:         uuid.New(),
		RegistryID:      uuid.New(),
		Policy:          models.DefaultPolicy(),
	}

	store := memory.NewStore()
	ledger := app.New(cfg, store, nil, chain.NewManualClock(10), nil)
	require.NoError(t, ledger.Gate.EnsureRegistry(context.Background(), cfg.RegistryID))

	tokens := service.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	deliverables, err := storage.NewDeliverableStorage(t.TempDir(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine := SetupRouter(cfg, Handlers{
		Auth:        handlers.NewAuthHandler(service.NewAuthService(store, tokens)),
		Tasks:       handlers.NewTaskHandler(ledger.Tasks),
		Escrow:      handlers.NewEscrowHandler(ledger.Escrow),
		Reputation:  handlers.NewReputationHandler(ledger.Reputation),
		Wallet:      handlers.NewWalletHandler(ledger.Wallets),
		Admin:       handlers.NewAdminHandler(ledger.Gate, ledger.Wallets, ledger.Audit),
		Deliverable: handlers.NewDeliverableHandler(deliverables),
		Health:      handlers.NewHealthHandler(nil, ledger.Clock),
		WS:          handlers.NewWSHandler(ws.NewHub(ctx), tokens, cfg.AllowedOrigins),
	}, tokens)

	return &testServer{t: t, engine: engine, tokens: tokens, ledger: ledger, owner: cfg.OwnerID}
}

// token выпускает access токен для идентичности.
func (s *testServer) token(id uuid.UUID) string {
	pair, err := s.tokens.GeneratePair(&models.Account{ID: id})
	require.NoError(s.t, err)
	return pair.AccessToken
}

func (s *testServer) do(method, path string, caller uuid.UUID, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+s.token(caller))
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string, num uint32) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, code, body.Code)
	assert.Equal(t, num, body.Num)
	assert.NotEmpty(t, body.Error)
}

func TestRouter_TaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	creator, worker := uuid.New(), uuid.New()

	w := s.do(http.MethodGet, "/health", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[handlers.HealthResponse](t, w)
	assert.Equal(t, uint64(10), health.Height)
	assert.Equal(t, "memory", health.Checks["database"])

	w = s.do(http.MethodPost, "/api/tasks", uuid.Nil, dto.CreateTaskRequest{Title: "x"})
	assertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED", 0)

	w = s.do(http.MethodPost, "/api/admin/wallets/"+creator.String()+"/fund", creator, dto.FundRequest{Amount: 100})
	assertError(t, w, http.StatusForbidden, "FORBIDDEN", 0)

	w = s.do(http.MethodPost, "/api/admin/wallets/"+creator.String()+"/fund", s.owner, dto.FundRequest{Amount: 2_000_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/tasks", creator, dto.CreateTaskRequest{
		Title:    "Иконки для приложения",
		Category: "design",
		Reward:   1_000_000,
		Deadline: 500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[models.Task](t, w)
	assert.Equal(t, uint64(1), task.ID)
	assert.Equal(t, models.TaskStatusOpen, task.Status)

	w = s.do(http.MethodPost, "/api/tasks", creator, dto.CreateTaskRequest{Title: "x", Category: "y", Reward: 1, Deadline: 500})
	assertError(t, w, http.StatusBadRequest, "InvalidAmount", 304)

	w = s.do(http.MethodGet, "/api/tasks/count", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decode[dto.CountResponse](t, w).Count)

	w = s.do(http.MethodGet, "/api/tasks?status=open&creator="+creator.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ListResponse[models.Task]](t, w)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Limit)

	w = s.do(http.MethodGet, "/api/tasks/abc", uuid.Nil, nil)
	assertError(t, w, http.StatusBadRequest, "BAD_REQUEST", 0)
	w = s.do(http.MethodGet, "/api/tasks/99", uuid.Nil, nil)
	assertError(t, w, http.StatusNotFound, "TaskNotFound", 301)

	w = s.do(http.MethodPost, "/api/tasks/1/assign", creator, dto.AssignTaskRequest{WorkerID: worker.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/tasks/1/submit", worker, dto.SubmitWorkRequest{SubmissionRef: "ipfs://QmIcons"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/tasks/1/approve", worker, dto.ApproveTaskRequest{Rating: 5})
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 300)
	w = s.do(http.MethodPost, "/api/tasks/1/approve", creator, dto.ApproveTaskRequest{Rating: 6})
	assertError(t, w, http.StatusBadRequest, "InvalidRating", 303)

	w = s.do(http.MethodPost, "/api/tasks/1/approve", creator, dto.ApproveTaskRequest{Rating: 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.TaskStatusApproved, decode[models.Task](t, w).Status)

	w = s.do(http.MethodPost, "/api/tasks/1/cancel", creator, nil)
	assertError(t, w, http.StatusConflict, "InvalidStatus", 302)

	w = s.do(http.MethodGet, "/api/escrows/1", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	escrow := decode[models.Escrow](t, w)
	assert.True(t, escrow.Released)
	assert.Equal(t, uint64(25_000), escrow.Fee)

	w = s.do(http.MethodGet, "/api/reputation/"+worker.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[models.Reputation](t, w)
	assert.Equal(t, uint64(1), rep.Stats.TasksCompleted)
	assert.Equal(t, uint64(500), rep.AverageRating)

	w = s.do(http.MethodGet, "/api/tasks/1/roles/"+worker.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	roles := decode[dto.RolesResponse](t, w)
	assert.True(t, roles.IsWorker)
	assert.False(t, roles.IsCreator)

	w = s.do(http.MethodGet, "/api/tasks/1/events", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.EventTaskApproved)

	w = s.do(http.MethodGet, "/api/wallet", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1_000_000), decode[models.WalletBalance](t, w).Available)

	w = s.do(http.MethodGet, "/api/wallet/transactions", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ListResponse[models.Transaction]](t, w).Items, 2)

	w = s.do(http.MethodGet, "/api/fees/quote?amount=1000000", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FeeQuote{Reward: 1_000_000, Fee: 25_000, TotalDeposit: 1_025_000}, decode[models.FeeQuote](t, w))

	w = s.do(http.MethodGet, "/api/fees/pool", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(25_000), decode[dto.FeePoolResponse](t, w).FeePool)

	treasury := uuid.New()
	w = s.do(http.MethodPost, "/api/fees/withdraw", creator, dto.WithdrawFeesRequest{RecipientID: treasury.String()})
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 200)
	w = s.do(http.MethodPost, "/api/fees/withdraw", s.owner, dto.WithdrawFeesRequest{RecipientID: treasury.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(25_000), decode[dto.WithdrawFeesResponse](t, w).Amount)

	w = s.do(http.MethodGet, "/api/admin/audit", creator, nil)
	assertError(t, w, http.StatusForbidden, "FORBIDDEN", 0)
	w = s.do(http.MethodGet, "/api/admin/audit", s.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.AuditReport](t, w).Balanced)
}

func TestRouter_PrivilegedCallsRequireAllowList(t *testing.T) {
	s := newTestServer(t)
	creator, indexer := uuid.New(), uuid.New()

	w := s.do(http.MethodPost, "/api/escrows/1/deposit", creator, dto.EscrowDepositRequest{Reward: 1_000_000, CreatorID: creator.String()})
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 200)

	w = s.do(http.MethodPost, "/api/reputation/"+creator.String()+"/completion", creator, dto.RecordCompletionRequest{IsWorker: true, Rating: 5})
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 100)

	w = s.do(http.MethodPost, "/api/admin/allowlists/reputation/"+indexer.String(), creator, nil)
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 100)

	w = s.do(http.MethodPost, "/api/admin/allowlists/reputation/"+indexer.String(), s.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[dto.AuthorizedResponse](t, w).Authorized)

	w = s.do(http.MethodGet, "/api/admin/allowlists/reputation/"+indexer.String(), creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.AuthorizedResponse](t, w).Authorized)

	w = s.do(http.MethodPost, "/api/reputation/"+creator.String()+"/completion", indexer, dto.RecordCompletionRequest{IsWorker: true, Rating: 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(400), decode[models.Reputation](t, w).AverageRating)

	w = s.do(http.MethodGet, "/api/admin/allowlists/reputation", s.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.AllowListResponse](t, w).Entries, 2)

	w = s.do(http.MethodDelete, "/api/admin/allowlists/reputation/"+indexer.String(), s.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[dto.AuthorizedResponse](t, w).Authorized)

	w = s.do(http.MethodPost, "/api/reputation/"+creator.String()+"/completion", indexer, dto.RecordCompletionRequest{IsWorker: true, Rating: 4})
	assertError(t, w, http.StatusForbidden, "NotAuthorized", 100)

	w = s.do(http.MethodGet, "/api/admin/allowlists/billing", s.owner, nil)
	assertError(t, w, http.StatusBadRequest, "InvalidInput", 902)
}

func TestRouter_Auth(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "creator@example.com", "password": "Secret123"}

	w := s.do(http.MethodPost, "/api/auth/register", uuid.Nil, creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[dto.AuthResponse](t, w)
	assert.NotEmpty(t, registered.AccessToken)

	w = s.do(http.MethodPost, "/api/auth/register", uuid.Nil, creds)
	assertError(t, w, http.StatusConflict, "EmailTaken", 901)

	w = s.do(http.MethodPost, "/api/auth/login", uuid.Nil, creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[dto.AuthResponse](t, w)
	assert.Equal(t, registered.Account.ID, login.Account.ID)

	w = s.do(http.MethodPost, "/api/auth/refresh", uuid.Nil, dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", uuid.Nil, map[string]string{"email": "creator@example.com", "password": "Wrong1234"})
	assertError(t, w, http.StatusUnauthorized, "InvalidCredentials", 900)

	// лимит группы auth: 5 запросов с одного IP
	w = s.do(http.MethodPost, "/api/auth/login", uuid.Nil, creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRouter_DeliverableUpload(t *testing.T) {
	s := newTestServer(t)
	worker := uuid.New()

	upload := func(content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "result.bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/deliverables", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.token(worker))
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		return w
	}

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}, bytes.Repeat([]byte{1}, 64)...)
	w := upload(png)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[dto.UploadResponse](t, w)
	assert.True(t, strings.HasPrefix(resp.SubmissionRef, storage.RefScheme+worker.String()+"/"))
	assert.Equal(t, "image/png", resp.ContentType)

	w = upload([]byte("просто текст без сигнатуры"))
	assertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR", 0)
}

func TestRouter_CORSAndMetrics(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/count", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(http.MethodGet, "/metrics", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taskbounty_")
}
