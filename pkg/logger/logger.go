package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log - глобальный логгер симуляции.
var Log *logrus.Logger

// Init настраивает глобальный логгер. Вызывается один раз при старте
// (main.go или TestMain).
//
// Переменные окружения:
//
//	LOG_LEVEL  - trace/debug/info/warn/error, по умолчанию "info"
//	LOG_FORMAT - "json" для продакшена, иначе цветной текст
func Init() {
	Log = logrus.New()

	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}
