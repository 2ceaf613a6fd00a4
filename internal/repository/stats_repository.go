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

type StatsRepository struct {
	tx *sqlx.Tx
}

func NewStatsRepository(tx *sqlx.Tx) *StatsRepository {
	return &StatsRepository{tx: tx}
}

// Get возвращает статистику пользователя или нулевую запись, если её ещё нет.
func (r *StatsRepository) Get(ctx context.Context, userID uuid.UUID) (models.UserStats, error) {
	stats, err := common.GetByField[models.UserStats](ctx, r.tx, "user_stats", "user_id", userID)
	if errors.Is(err, common.ErrNotFound) {
		return models.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return models.UserStats{}, fmt.Errorf("stats repository: get %s: %w", userID, err)
	}
	return *stats, nil
}

// Save создаёт или перезаписывает статистику пользователя.
func (r *StatsRepository) Save(ctx context.Context, s models.UserStats) error {
	query := r.tx.Rebind(`
		INSERT INTO user_stats (user_id, tasks_completed, total_ratings, sum_ratings, total_spent,
			total_earned, disputes_opened, disputes_won, disputes_lost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			tasks_completed = excluded.tasks_completed,
			total_ratings = excluded.total_ratings,
			sum_ratings = excluded.sum_ratings,
			total_spent = excluded.total_spent,
			total_earned = excluded.total_earned,
			disputes_opened = excluded.disputes_opened,
			disputes_won = excluded.disputes_won,
			disputes_lost = excluded.disputes_lost
	`)
	_, err := r.tx.ExecContext(ctx, query,
		s.UserID, int64(s.TasksCompleted), int64(s.TotalRatings), int64(s.SumRatings), int64(s.TotalSpent),
		int64(s.TotalEarned), int64(s.DisputesOpened), int64(s.DisputesWon), int64(s.DisputesLost),
	)
	if err != nil {
		return fmt.Errorf("stats repository: save %s: %w", s.UserID, err)
	}
	return nil
}
