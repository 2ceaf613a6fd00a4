package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskbounty-backend/internal/events"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/repository"
	"github.com/ignatzorin/taskbounty-backend/internal/repository/common"
)

// Пагинация списков
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage приводит параметры пагинации к допустимым значениям.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// recordEvent добавляет событие в журнал и ставит его доставку на момент фиксации.
func recordEvent(ctx context.Context, tx repository.Tx, publisher events.Publisher, e models.Event) error {
	e.CreatedAt = time.Now().Unix()
	if err := tx.Events().Append(ctx, &e); err != nil {
		return err
	}
	if publisher != nil {
		tx.OnCommit(func() {
			events.PublishLogged(context.Background(), publisher, e)
		})
	}
	return nil
}

// payload сериализует полезную нагрузку события.
func payload(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// participants автор и исполнитель задачи, если он назначен.
func participants(creator uuid.UUID, worker uuid.NullUUID) []uuid.UUID {
	if worker.Valid {
		return []uuid.UUID{creator, worker.UUID}
	}
	return []uuid.UUID{creator}
}

// notFound переводит отсутствие записи в ошибку предметной области.
func notFound(err error, domainErr *apperror.AppError) error {
	if errors.Is(err, common.ErrNotFound) {
		return domainErr
	}
	return err
}
