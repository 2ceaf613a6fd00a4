package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/chain"
	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
)

// AccessGate списки доверенных вызывающих для привилегированных операций.
// Изменять списки может только владелец платформы.
type AccessGate struct {
	uow       repository.UnitOfWork
	clock     chain.Clock
	owner     uuid.UUID
	publisher events.Publisher
}

func NewAccessGate(uow repository.UnitOfWork, clock chain.Clock, owner uuid.UUID, publisher events.Publisher) *AccessGate {
	return &AccessGate{uow: uow, clock: clock, owner: owner, publisher: publisher}
}

// Owner идентичность владельца платформы.
func (g *AccessGate) Owner() uuid.UUID {
	return g.owner
}

// notAuthorized ошибка отказа в доступе для области.
func notAuthorized(scope models.AccessScope) error {
	switch scope {
	case models.ScopeEscrow:
		return apperror.ErrEscrowNotAuthorized
	case models.ScopeReputation:
		return apperror.ErrReputationNotAuthorized
	default:
		return apperror.ErrTaskNotAuthorized
	}
}

// Authorize добавляет identity в список области. Повторная выдача ничего не меняет.
func (g *AccessGate) Authorize(ctx context.Context, caller uuid.UUID, scope models.AccessScope, identity uuid.UUID) error {
	if !scope.IsValid() || identity == uuid.Nil {
		return apperror.ErrInvalidInput
	}
	if caller != g.owner {
		return notAuthorized(scope)
	}

	return g.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		exists, err := tx.AllowLists().Contains(ctx, scope, identity)
		if err != nil || exists {
			return err
		}

		height := g.clock.Height()
		if err := tx.AllowLists().Add(ctx, models.AllowListEntry{
			Scope:         scope,
			Identity:      identity,
			GrantedBy:     caller,
			GrantedHeight: height,
		}); err != nil {
			return err
		}

		tx.OnCommit(func() {
			logger.Log.WithFields(map[string]interface{}{
				"scope":    scope,
				"identity": identity,
			}).Info("access: доступ выдан")
		})

		return recordEvent(ctx, tx, g.publisher, models.Event{
			Kind:       models.EventAllowListGranted,
			Actor:      caller,
			Height:     height,
			Payload:    payload(map[string]any{"scope": scope, "identity": identity}),
			Recipients: []uuid.UUID{identity},
		})
	})
}

// Revoke удаляет identity из списка области. Отзыв отсутствующей записи ничего не меняет.
func (g *AccessGate) Revoke(ctx context.Context, caller uuid.UUID, scope models.AccessScope, identity uuid.UUID) error {
	if !scope.IsValid() || identity == uuid.Nil {
		return apperror.ErrInvalidInput
	}
	if caller != g.owner {
		return notAuthorized(scope)
	}

	return g.uow.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		removed, err := tx.AllowLists().Remove(ctx, scope, identity)
		if err != nil || !removed {
			return err
		}

		tx.OnCommit(func() {
			logger.Log.WithFields(map[string]interface{}{
				"scope":    scope,
				"identity": identity,
			}).Info("access: доступ отозван")
		})

		return recordEvent(ctx, tx, g.publisher, models.Event{
			Kind:       models.EventAllowListRevoked,
			Actor:      caller,
			Height:     g.clock.Height(),
			Payload:    payload(map[string]any{"scope": scope, "identity": identity}),
			Recipients: []uuid.UUID{identity},
		})
	})
}

// IsAuthorized проверяет, входит ли identity в список области.
func (g *AccessGate) IsAuthorized(ctx context.Context, scope models.AccessScope, identity uuid.UUID) (bool, error) {
	if !scope.IsValid() {
		return false, apperror.ErrInvalidInput
	}
	var ok bool
	err := g.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ok, err = tx.AllowLists().Contains(ctx, scope, identity)
		return err
	})
	return ok, err
}

// List возвращает записи списка области.
func (g *AccessGate) List(ctx context.Context, scope models.AccessScope) ([]models.AllowListEntry, error) {
	if !scope.IsValid() {
		return nil, apperror.ErrInvalidInput
	}
	var entries []models.AllowListEntry
	err := g.uow.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.AllowLists().List(ctx, scope)
		return err
	})
	return entries, err
}

// require проверяет доступ внутри открытой транзакции.
func (g *AccessGate) require(ctx context.Context, tx repository.Tx, scope models.AccessScope, caller uuid.UUID) error {
	ok, err := tx.AllowLists().Contains(ctx, scope, caller)
	if err != nil {
		return err
	}
	if !ok {
		return notAuthorized(scope)
	}
	return nil
}

// EnsureRegistry выдаёт реестру задач доступ к escrow и репутации при старте.
func (g *AccessGate) EnsureRegistry(ctx context.Context, registryID uuid.UUID) error {
	for _, scope := range []models.AccessScope{models.ScopeEscrow, models.ScopeReputation} {
		if err := g.Authorize(ctx, g.owner, scope, registryID); err != nil {
			return err
		}
	}
	return nil
}
