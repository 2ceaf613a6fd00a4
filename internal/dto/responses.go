package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

// ErrorResponse represents an error response. Code and Num are stable across releases
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Num   uint32 `json:"num,omitempty"`
}

// AccountResponse represents a registered account
type AccountResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse represents the result of register/login
type AuthResponse struct {
	Account      AccountResponse `json:"account"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
}

// ListResponse represents a paginated list
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CountResponse represents a counter value
type CountResponse struct {
	Count uint64 `json:"count"`
}

// RolesResponse represents a user's roles on a task
type RolesResponse struct {
	TaskID    uint64    `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	IsCreator bool      `json:"is_creator"`
	IsWorker  bool      `json:"is_worker"`
}

// FeePoolResponse represents the current platform fee pool
type FeePoolResponse struct {
	FeePool uint64 `json:"fee_pool"`
}

// WithdrawFeesResponse represents the amount paid out of the fee pool
type WithdrawFeesResponse struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Amount      uint64    `json:"amount"`
}

// AllowListResponse represents an allow-list scope
type AllowListResponse struct {
	Scope   models.AccessScope      `json:"scope"`
	Entries []models.AllowListEntry `json:"entries"`
}

// AuthorizedResponse represents a membership check
type AuthorizedResponse struct {
	Scope      models.AccessScope `json:"scope"`
	Identity   uuid.UUID          `json:"identity"`
	Authorized bool               `json:"authorized"`
}

// UploadResponse represents a stored deliverable
type UploadResponse struct {
	SubmissionRef string `json:"submission_ref"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
}
