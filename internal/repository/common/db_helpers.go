package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetByField - универсальная функция для получения сущности по любому полю.
// Запрос пишется с плейсхолдером ?, драйверный синтаксис подставляет Rebind.
func GetByField[T any](ctx context.Context, tx *sqlx.Tx, table, field string, value interface{}) (*T, error) {
	var entity T
	query := tx.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", table, field))

	if err := tx.GetContext(ctx, &entity, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get by %s from %s: %w", field, table, err)
	}

	return &entity, nil
}

// ScalarUint64 выполняет запрос, возвращающий одно неотрицательное число.
func ScalarUint64(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (uint64, error) {
	var value uint64
	if err := tx.GetContext(ctx, &value, tx.Rebind(query), args...); err != nil {
		return 0, err
	}
	return value, nil
}

// ExecAffected выполняет запрос и проверяет, что он затронул хотя бы одну строку.
func ExecAffected(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок
func WithTransaction(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// При панике откатываем транзакцию
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		// При ошибке откатываем транзакцию
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	// Коммитим транзакцию
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
