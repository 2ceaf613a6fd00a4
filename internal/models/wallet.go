package models

import (
	"github.com/google/uuid"
)

// Типы транзакций кошелька
const (
	TransactionTypeFund          = "fund"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeRelease       = "release"
	TransactionTypeRefund        = "refund"
	TransactionTypeDisputePayout = "dispute_payout"
	TransactionTypeFeeWithdrawal = "fee_withdrawal"
)

// WalletBalance баланс пользователя в минимальных единицах.
type WalletBalance struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Available uint64    `db:"available" json:"available"`
}

// Transaction запись движения средств. Direction "in" для зачисления, "out" для списания.
type Transaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	TaskID    uint64    `db:"task_id" json:"task_id,omitempty"`
	Type      string    `db:"type" json:"type"`
	Direction string    `db:"direction" json:"direction"`
	Amount    uint64    `db:"amount" json:"amount"`
	Height    uint64    `db:"height" json:"height"`
	CreatedAt int64     `db:"created_at" json:"created_at"`
}

// AuditReport результат сверки реестра.
type AuditReport struct {
	TotalFunded    uint64 `json:"total_funded"`
	WalletBalances uint64 `json:"wallet_balances"`
	EscrowHeld     uint64 `json:"escrow_held"`
	FeePool        uint64 `json:"fee_pool"`
	Balanced       bool   `json:"balanced"`
}
