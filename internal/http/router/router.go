package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers"
	"github.com/ignatzorin/taskbounty-backend/internal/http/middleware"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
)

// Handlers набор HTTP обработчиков приложения.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Tasks       *handlers.TaskHandler
	Escrow      *handlers.EscrowHandler
	Reputation  *handlers.ReputationHandler
	Wallet      *handlers.WalletHandler
	Admin       *handlers.AdminHandler
	Deliverable *handlers.DeliverableHandler
	Health      *handlers.HealthHandler
	WS          *handlers.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	// Публичные запросы только на чтение
	taskID := middleware.TaskIDValidator("id")
	escrowID := middleware.TaskIDValidator("taskId")
	userID := middleware.UUIDValidator("userId")

	api.GET("/tasks", h.Tasks.List)
	api.GET("/tasks/count", h.Tasks.Count)
	api.GET("/tasks/:id", taskID, h.Tasks.Get)
	api.GET("/tasks/:id/roles/:userId", taskID, userID, h.Tasks.Roles)
	api.GET("/tasks/:id/events", taskID, h.Tasks.Events)
	api.GET("/escrows/:taskId", escrowID, h.Escrow.Get)
	api.GET("/fees/quote", h.Escrow.Quote)
	api.GET("/fees/pool", h.Escrow.Pool)
	api.GET("/reputation/:userId", userID, h.Reputation.Get)
	api.GET("/ws", h.WS.Handle)

	// Защищённые маршруты: subject токена является вызывающим
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		tasks := protected.Group("/tasks")
		tasks.POST("", h.Tasks.Create)
		tasks.POST("/:id/assign", taskID, h.Tasks.Assign)
		tasks.POST("/:id/submit", taskID, h.Tasks.Submit)
		tasks.POST("/:id/approve", taskID, h.Tasks.Approve)
		tasks.POST("/:id/reject", taskID, h.Tasks.Reject)
		tasks.POST("/:id/dispute", taskID, h.Tasks.Dispute)
		tasks.POST("/:id/cancel", taskID, h.Tasks.Cancel)
		tasks.POST("/:id/reclaim", taskID, h.Tasks.Reclaim)
		tasks.POST("/:id/resolve", taskID, h.Tasks.Resolve)

		protected.POST("/deliverables", h.Deliverable.Upload)

		protected.GET("/wallet", h.Wallet.GetBalance)
		protected.GET("/wallet/transactions", h.Wallet.ListTransactions)
		if cfg.Env == "development" {
			protected.POST("/wallet/deposit", h.Wallet.Deposit)
		}

		// Привилегированные вызовы escrow и репутации
		escrows := protected.Group("/escrows/:taskId", escrowID)
		escrows.POST("/deposit", h.Escrow.Deposit)
		escrows.POST("/worker", h.Escrow.SetWorker)
		escrows.POST("/release", h.Escrow.Release)
		escrows.POST("/refund", h.Escrow.Refund)
		escrows.POST("/dispute", h.Escrow.Dispute)
		escrows.POST("/resolve", h.Escrow.Resolve)

		protected.POST("/fees/withdraw", h.Escrow.Withdraw)

		reputation := protected.Group("/reputation/:userId", userID)
		reputation.POST("/completion", h.Reputation.RecordCompletion)
		reputation.POST("/created", h.Reputation.RecordCreated)
		reputation.POST("/earned", h.Reputation.RecordEarned)
		reputation.POST("/dispute", h.Reputation.RecordDispute)

		admin := protected.Group("/admin")
		admin.GET("/allowlists/:scope", h.Admin.ListAllowList)
		admin.GET("/allowlists/:scope/:identity", h.Admin.IsAuthorized)
		admin.POST("/allowlists/:scope/:identity", h.Admin.Authorize)
		admin.DELETE("/allowlists/:scope/:identity", h.Admin.Revoke)
		admin.POST("/wallets/:userId/fund", userID, h.Admin.Fund)
		admin.GET("/audit", h.Admin.Audit)
	}

	return r
}
