package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ignatzorin/taskbounty-backend/internal/logger"
)

const (
	postgresConnectAttempts = 5
	postgresRetryDelay      = 2 * time.Second
)

// NewPostgres подключается к PostgreSQL. База может подняться позже сервиса,
// поэтому подключение повторяется несколько раз до отмены ctx.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: неверный DSN: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	for attempt := 1; ; attempt++ {
		err = conn.PingContext(ctx)
		if err == nil {
			return conn, nil
		}
		if attempt == postgresConnectAttempts {
			break
		}
		logger.Log.WithError(err).WithField("attempt", attempt).Warn("postgres: база недоступна, повтор")

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-time.After(postgresRetryDelay):
		}
	}

	_ = conn.Close()
	return nil, fmt.Errorf("postgres: не удалось подключиться за %d попыток: %w", postgresConnectAttempts, err)
}
