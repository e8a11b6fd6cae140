package observability

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured logrus logger. Level strings follow logrus
// conventions; anything unparseable falls back to info.
func NewLogger(level string, output io.Writer) *logrus.Logger {
	log := logrus.New()
	if output != nil {
		log.SetOutput(output)
	}
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(parseLevel(level))
	return log
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
