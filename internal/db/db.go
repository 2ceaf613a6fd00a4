package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Имена драйверов database/sql
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open подключается к базе выбранного драйвера и применяет миграции.
func Open(ctx context.Context, driver, dsn, migrationsDir string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case DriverPostgres:
		conn, err = NewPostgres(ctx, dsn)
	case DriverSQLite:
		conn, err = NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("db: неподдерживаемый драйвер %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
