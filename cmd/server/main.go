package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignatzorin/taskbounty-backend/internal/app"
	"github.com/ignatzorin/taskbounty-backend/internal/config"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/taskbounty-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/taskbounty-backend/internal/http/router"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/service"
	"github.com/ignatzorin/taskbounty-backend/internal/storage"
	"github.com/ignatzorin/taskbounty-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	lg := logger.Component("main")

	// Вебсокеты и внешняя шина событий.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo("ws.hub", hub.Run)

	publishers := events.Multi{hub}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			lg.WithError(err).Fatal("main: ошибка подключения к NATS")
		}
		defer nc.Drain()
		publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATSSubject))
		lg.WithField("subject", cfg.NATSSubject).Info("main: события публикуются в NATS")
	}

	// Хранилище, миграции и сервисы реестра.
	ledger, err := app.Open(ctx, cfg, publishers)
	if err != nil {
		lg.WithError(err).Fatal("main: ошибка инициализации реестра")
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			lg.WithError(err).Warn("main: ошибка закрытия базы")
		}
	}()

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(ledger.Store, tokenManager)

	deliverables, err := storage.NewDeliverableStorage(cfg.DeliverableStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		lg.WithError(err).Fatal("main: не удалось подготовить файловое хранилище")
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:        httpHandlers.NewAuthHandler(authService),
		Tasks:       httpHandlers.NewTaskHandler(ledger.Tasks),
		Escrow:      httpHandlers.NewEscrowHandler(ledger.Escrow),
		Reputation:  httpHandlers.NewReputationHandler(ledger.Reputation),
		Wallet:      httpHandlers.NewWalletHandler(ledger.Wallets),
		Admin:       httpHandlers.NewAdminHandler(ledger.Gate, ledger.Wallets, ledger.Audit),
		Deliverable: httpHandlers.NewDeliverableHandler(deliverables),
		Health:      httpHandlers.NewHealthHandler(ledger.DB, ledger.Clock),
		WS:          httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo("http.shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.WithError(err).Warn("main: ошибка остановки http сервера")
		}
	})

	lg.WithFields(map[string]interface{}{
		"port":     cfg.HTTPPort,
		"storage":  cfg.StorageDriver,
		"owner":    cfg.OwnerID,
		"registry": cfg.RegistryID,
		"height":   ledger.Clock.Height(),
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
}
