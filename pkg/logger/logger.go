package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
// До вызова Init он уже пригоден к работе (текстовый формат, уровень info),
// поэтому пакеты и тесты могут логировать без явной инициализации.
var Log = logrus.New()

// Init настраивает глобальный логгер из окружения.
// Вызывается один раз при старте в main.go каждого бинарника.
func Init() {
	// 1. Уровень логирования. По умолчанию - "info", для отладки "debug".
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер.
	// "json" - для продакшена и сбора логов.
	// "text" - для удобной разработки.
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	// 3. Сервер пишет в stdout, консоль оператора - в stderr (stdout занят событиями).
	Log.SetOutput(os.Stdout)
}

// SetOutput перенаправляет логи (консоль, тесты).
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
