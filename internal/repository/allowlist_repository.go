package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type AllowListRepository struct {
	tx *sqlx.Tx
}

func NewAllowListRepository(tx *sqlx.Tx) *AllowListRepository {
	return &AllowListRepository{tx: tx}
}

// Contains проверяет, входит ли идентичность в список области.
func (r *AllowListRepository) Contains(ctx context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error) {
	n, err := common.ScalarUint64(ctx, r.tx,
		`SELECT COUNT(*) FROM allow_lists WHERE scope = ? AND identity = ?`, string(scope), identity)
	if err != nil {
		return false, fmt.Errorf("allowlist repository: contains: %w", err)
	}
	return n > 0, nil
}

// Add добавляет запись. Повторное добавление не меняет исходную запись.
func (r *AllowListRepository) Add(ctx context.Context, entry models.AllowListEntry) error {
	query := r.tx.Rebind(`
		INSERT INTO allow_lists (scope, identity, granted_by, granted_height)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, identity) DO NOTHING
	`)
	_, err := r.tx.ExecContext(ctx, query, string(entry.Scope), entry.Identity, entry.GrantedBy, int64(entry.GrantedHeight))
	if err != nil {
		return fmt.Errorf("allowlist repository: add: %w", err)
	}
	return nil
}

// Remove удаляет запись и сообщает, существовала ли она.
func (r *AllowListRepository) Remove(ctx context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error) {
	err := common.ExecAffected(ctx, r.tx, `DELETE FROM allow_lists WHERE scope = ? AND identity = ?`, string(scope), identity)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("allowlist repository: remove: %w", err)
	}
	return true, nil
}

// List возвращает записи области в порядке выдачи.
func (r *AllowListRepository) List(ctx context.Context, scope models.AccessScope) ([]models.AllowListEntry, error) {
	entries := []models.AllowListEntry{}
	query := r.tx.Rebind(`
		SELECT scope, identity, granted_by, granted_height FROM allow_lists
		WHERE scope = ? ORDER BY granted_height, identity
	`)
	if err := r.tx.SelectContext(ctx, &entries, query, string(scope)); err != nil {
		return nil, fmt.Errorf("allowlist repository: list: %w", err)
	}
	return entries, nil
}
