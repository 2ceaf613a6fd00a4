package models

import "github.com/google/uuid"

// AccessScope подсистема, для которой ведётся список доверенных вызывающих.
type AccessScope string

// Области доступа
const (
	ScopeEscrow     AccessScope = "escrow"
	ScopeReputation AccessScope = "reputation"
	ScopeArbiter    AccessScope = "arbiter"
)

// IsValid проверяет, что область известна.
func (s AccessScope) IsValid() bool {
	switch s {
	case ScopeEscrow, ScopeReputation, ScopeArbiter:
		return true
	}
	return false
}

// AllowListEntry запись списка доверенных вызывающих.
type AllowListEntry struct {
	Scope         AccessScope `db:"scope" json:"scope"`
	Identity      uuid.UUID   `db:"identity" json:"identity"`
	GrantedBy     uuid.UUID   `db:"granted_by" json:"granted_by"`
	GrantedHeight uint64      `db:"granted_height" json:"granted_height"`
}
