package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
)

// Границы рейтинга
const (
	MinRating = 1
	MaxRating = 5
)

// ReputationService накопительная статистика и репутация пользователей.
// Запись доступна только вызывающим из списка reputation.
type ReputationService struct {
	uow    repository.UnitOfWork
	gate   *AccessGate
	policy models.Policy
}

func NewReputationService(uow repository.UnitOfWork, gate *AccessGate, policy models.Policy) *ReputationService {
	return &ReputationService{uow: uow, gate: gate, policy: policy}
}

// RecordCompletion учитывает завершённую задачу с оценкой.
func (s *ReputationService) RecordCompletion(ctx context.Context, caller, user uuid.UUID, isWorker bool, rating uint64) error {
	return s.update(ctx, caller, user, func(st *models.UserStats) error {
		if rating < MinRating || rating > MaxRating {
			return apperror.ErrReputationInvalidRating
		}
		st.TasksCompleted++
		st.TotalRatings++
		st.SumRatings += rating
		return nil
	})
}

// RecordTaskCreated учитывает сумму, потраченную автором.
func (s *ReputationService) RecordTaskCreated(ctx context.Context, caller, user uuid.UUID, amount uint64) error {
	return s.update(ctx, caller, user, func(st *models.UserStats) error {
		st.TotalSpent += amount
		return nil
	})
}

// RecordTaskEarned учитывает сумму, заработанную исполнителем.
func (s *ReputationService) RecordTaskEarned(ctx context.Context, caller, user uuid.UUID, amount uint64) error {
	return s.update(ctx, caller, user, func(st *models.UserStats) error {
		st.TotalEarned += amount
		return nil
	})
}

// RecordDispute учитывает исход спора.
func (s *ReputationService) RecordDispute(ctx context.Context, caller, user uuid.UUID, isWorker, won bool) error {
	return s.update(ctx, caller, user, func(st *models.UserStats) error {
		st.DisputesOpened++
		if won {
			st.DisputesWon++
		} else {
			st.DisputesLost++
		}
		return nil
	})
}

// GetUserStats возвращает статистику пользователя. Для нового пользователя все счётчики нулевые.
func (s *ReputationService) GetUserStats(ctx context.Context, user uuid.UUID) (models.UserStats, error) {
	var stats models.UserStats
	err := s.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		stats, err = tx.Stats().Get(ctx, user)
		return err
	})
	return stats, err
}

// GetAverageRating средний рейтинг ×100. Без оценок возвращает 0 и rated=false.
func (s *ReputationService) GetAverageRating(ctx context.Context, user uuid.UUID) (uint64, bool, error) {
	stats, err := s.GetUserStats(ctx, user)
	if err != nil {
		return 0, false, err
	}
	return models.AverageRating(stats), stats.TotalRatings > 0, nil
}

// GetReputation статистика, средний рейтинг и итоговый балл.
func (s *ReputationService) GetReputation(ctx context.Context, user uuid.UUID) (*models.Reputation, error) {
	stats, err := s.GetUserStats(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.Reputation{
		Stats:         stats,
		AverageRating: models.AverageRating(stats),
		Rated:         stats.TotalRatings > 0,
		Score:         s.policy.ReputationScore(stats),
	}, nil
}

func (s *ReputationService) update(ctx context.Context, caller, user uuid.UUID, apply func(*models.UserStats) error) error {
	return s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.gate.require(ctx, tx, models.ScopeReputation, caller); err != nil {
			return err
		}
		if user == uuid.Nil {
			return apperror.ErrInvalidInput
		}
		stats, err := tx.Stats().Get(ctx, user)
		if err != nil {
			return err
		}
		if err := apply(&stats); err != nil {
			return err
		}
		return tx.Stats().Save(ctx, stats)
	})
}
