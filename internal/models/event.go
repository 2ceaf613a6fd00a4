package models

import (
	"github.com/google/uuid"
)

// Типы событий реестра
const (
	EventTaskCreated      = "task.created"
	EventTaskAssigned     = "task.assigned"
	EventTaskSubmitted    = "task.submitted"
	EventTaskApproved     = "task.approved"
	EventTaskRejected     = "task.rejected"
	EventTaskDisputed     = "task.disputed"
	EventTaskCancelled    = "task.cancelled"
	EventTaskResolved     = "task.resolved"
	EventTaskRefunded     = "task.refunded"
	EventEscrowDeposited  = "escrow.deposited"
	EventEscrowReleased   = "escrow.released"
	EventEscrowRefunded   = "escrow.refunded"
	EventEscrowResolved   = "escrow.resolved"
	EventFeesWithdrawn    = "escrow.fees_withdrawn"
	EventAllowListGranted = "access.granted"
	EventAllowListRevoked = "access.revoked"
	EventWalletFunded     = "wallet.funded"
)

// Event запись журнала реестра. Журнал только дополняется.
type Event struct {
	Seq       uint64    `db:"seq" json:"seq"`
	TaskID    uint64    `db:"task_id" json:"task_id,omitempty"`
	Kind      string    `db:"kind" json:"kind"`
	Actor     uuid.UUID `db:"actor_id" json:"actor_id"`
	Height    uint64    `db:"height" json:"height"`
	Payload   string    `db:"payload" json:"payload,omitempty"`
	CreatedAt int64     `db:"created_at" json:"created_at"`

	// Recipients получатели push-уведомления, в журнал не пишутся.
	Recipients []uuid.UUID `db:"-" json:"-"`
}
