package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskbounty-backend/internal/logger"
)

// RecoveryHandler перехватывает panic в фоновых горутинах и пишет их в лог.
type RecoveryHandler struct {
	log *logrus.Entry
}

// NewRecoveryHandler создает обработчик с указанным логгером.
func NewRecoveryHandler(log *logrus.Entry) *RecoveryHandler {
	return &RecoveryHandler{log: log}
}

// SafeGo запускает горутину с обработкой panic. name попадает в лог.
func (rh *RecoveryHandler) SafeGo(name string, fn func()) {
	go rh.run(name, fn)
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go rh.run(name, func() { fn(ctx) })
}

func (rh *RecoveryHandler) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rh.log.WithFields(logrus.Fields{
				"goroutine": name,
				"panic":     r,
				"stack":     string(debug.Stack()),
			}).Error("goroutine: panic перехвачен")
		}
	}()
	fn()
}

// SafeGo запускает горутину через обработчик по умолчанию.
func SafeGo(name string, fn func()) {
	NewRecoveryHandler(logger.Component("goroutine")).SafeGo(name, fn)
}

// SafeGoWithContext запускает горутину с контекстом через обработчик по умолчанию.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	NewRecoveryHandler(logger.Component("goroutine")).SafeGoWithContext(ctx, name, fn)
}
