package models

import (
	"github.com/google/uuid"
)

// Account учётная запись, от имени которой подписываются вызовы.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    int64     `db:"created_at" json:"created_at"`
}
