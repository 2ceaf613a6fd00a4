package models

import (
	"github.com/google/uuid"
)

// Итоги escrow
const (
	EscrowOutcomeHeld     = "held"
	EscrowOutcomeReleased = "released"
	EscrowOutcomeRefunded = "refunded"
	EscrowOutcomeResolved = "resolved"
)

// Escrow хранит вознаграждение по задаче до выплаты.
// Amount не включает комиссию платформы и не меняется после депозита.
type Escrow struct {
	TaskID        uint64        `db:"task_id" json:"task_id"`
	Amount        uint64        `db:"amount" json:"amount"`
	Fee           uint64        `db:"fee" json:"fee"`
	Creator       uuid.UUID     `db:"creator_id" json:"creator_id"`
	Worker        uuid.NullUUID `db:"worker_id" json:"worker_id"`
	Released      bool          `db:"released" json:"released"`
	DisputeOpened bool          `db:"dispute_opened" json:"dispute_opened"`
	Outcome       string        `db:"outcome" json:"outcome"`
	WorkerPayout  uint64        `db:"worker_payout" json:"worker_payout"`
	CreatorPayout uint64        `db:"creator_payout" json:"creator_payout"`
	CreatedHeight uint64        `db:"created_height" json:"created_height"`
}

// FeeQuote расчёт депозита для вознаграждения.
type FeeQuote struct {
	Reward       uint64 `json:"reward"`
	Fee          uint64 `json:"fee"`
	TotalDeposit uint64 `json:"total_deposit"`
}

// DisputeSplit результат разрешения спора.
type DisputeSplit struct {
	TaskID        uint64 `json:"task_id"`
	Percentage    uint64 `json:"worker_percentage"`
	WorkerAmount  uint64 `json:"worker_amount"`
	CreatorAmount uint64 `json:"creator_amount"`
}
