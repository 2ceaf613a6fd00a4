// Package events доставка событий реестра подписчикам после фиксации транзакции.
package events

import (
	"context"
	"errors"

	"github.com/ignatzorin/taskbounty-backend/internal/logger"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

// Publisher доставляет зафиксированное событие.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Nop отбрасывает события.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }

// Multi рассылает событие всем издателям и собирает ошибки.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishLogged публикует событие и только логирует ошибку:
// журнал уже зафиксирован, доставка подписчикам не влияет на результат операции.
func PublishLogged(ctx context.Context, p Publisher, event models.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"seq":  event.Seq,
			"kind": event.Kind,
		}).Warn("events: не удалось доставить событие")
	}
}
