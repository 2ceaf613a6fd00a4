package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

type AccountRepository struct {
	tx *sqlx.Tx
}

func NewAccountRepository(tx *sqlx.Tx) *AccountRepository {
	return &AccountRepository{tx: tx}
}

// Create сохраняет учётную запись. Email хранится в нижнем регистре.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Email = strings.ToLower(account.Email)
	exists, err := common.ScalarUint64(ctx, r.tx, `SELECT COUNT(*) FROM accounts WHERE email = ?`, account.Email)
	if err != nil {
		return fmt.Errorf("account repository: check email: %w", err)
	}
	if exists > 0 {
		return common.ErrAlreadyExists
	}

	query := r.tx.Rebind(`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.tx.ExecContext(ctx, query, account.ID, account.Email, account.PasswordHash, account.CreatedAt); err != nil {
		return fmt.Errorf("account repository: create: %w", err)
	}
	return nil
}

// GetByEmail ищет учётную запись по email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return common.GetByField[models.Account](ctx, r.tx, "accounts", "email", strings.ToLower(email))
}

// GetByID ищет учётную запись по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return common.GetByField[models.Account](ctx, r.tx, "accounts", "id", id)
}
