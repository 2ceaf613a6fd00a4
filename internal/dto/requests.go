package dto

// RegisterRequest represents the request to register an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateTaskRequest represents the request to create a task
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reward      uint64 `json:"reward"`
	Deadline    uint64 `json:"deadline"`
}

// AssignTaskRequest represents the request to assign a worker
type AssignTaskRequest struct {
	WorkerID string `json:"worker_id" binding:"required"`
}

// SubmitWorkRequest represents the request to submit work
type SubmitWorkRequest struct {
	SubmissionRef string `json:"submission_ref"`
	Note          string `json:"note"`
}

// ApproveTaskRequest represents the request to approve submitted work
type ApproveTaskRequest struct {
	Rating uint64 `json:"rating"`
}

// ReasonRequest represents a request carrying an optional reason
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ResolveDisputeRequest represents the request to split a disputed escrow
type ResolveDisputeRequest struct {
	WorkerPercentage uint64 `json:"worker_percentage"`
}

// EscrowDepositRequest represents a privileged escrow deposit
type EscrowDepositRequest struct {
	Reward    uint64 `json:"reward"`
	CreatorID string `json:"creator_id" binding:"required"`
}

// EscrowWorkerRequest represents a privileged worker attachment
type EscrowWorkerRequest struct {
	WorkerID string `json:"worker_id" binding:"required"`
}

// WithdrawFeesRequest represents the request to drain the fee pool
type WithdrawFeesRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
}

// RecordCompletionRequest represents a privileged completion record
type RecordCompletionRequest struct {
	IsWorker bool   `json:"is_worker"`
	Rating   uint64 `json:"rating"`
}

// RecordAmountRequest represents a privileged spent/earned record
type RecordAmountRequest struct {
	Amount uint64 `json:"amount"`
}

// RecordDisputeRequest represents a privileged dispute outcome record
type RecordDisputeRequest struct {
	IsWorker bool `json:"is_worker"`
	Won      bool `json:"won"`
}

// FundRequest represents a wallet top-up
type FundRequest struct {
	Amount uint64 `json:"amount" binding:"required,gt=0"`
}
