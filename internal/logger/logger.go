package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log глобальный логгер. До Init пишет текстом с уровнем info,
// поэтому пакеты можно использовать в тестах без инициализации.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Discard отключает вывод логов. Используется в тестах.
func Discard() {
	Log.SetOutput(io.Discard)
}

// Component возвращает запись логгера с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
