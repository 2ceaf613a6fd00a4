package models

import "github.com/google/uuid"

// UserStats накопительная статистика пользователя. Счётчики только растут.
type UserStats struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	TasksCompleted uint64    `db:"tasks_completed" json:"tasks_completed"`
	TotalRatings   uint64    `db:"total_ratings" json:"total_ratings"`
	SumRatings     uint64    `db:"sum_ratings" json:"sum_ratings"`
	TotalSpent     uint64    `db:"total_spent" json:"total_spent"`
	TotalEarned    uint64    `db:"total_earned" json:"total_earned"`
	DisputesOpened uint64    `db:"disputes_opened" json:"disputes_opened"`
	DisputesWon    uint64    `db:"disputes_won" json:"disputes_won"`
	DisputesLost   uint64    `db:"disputes_lost" json:"disputes_lost"`
}

// Reputation агрегированная репутация пользователя.
type Reputation struct {
	Stats         UserStats `json:"stats"`
	AverageRating uint64    `json:"average_rating"`
	Rated         bool      `json:"rated"`
	Score         uint64    `json:"score"`
}
