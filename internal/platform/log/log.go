package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/luxeladies/community-api/internal/platform/config"
)

// Logger wraps logrus.Logger so callers share one configured instance.
type Logger struct {
	*logrus.Logger
}

// Fields represents a map of fields for structured logging.
type Fields map[string]any

// New creates a logger from the LOG_* settings.
func New(cfg config.LogConfig) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.LogFormat {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	var output io.Writer
	switch cfg.LogOutput {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0o755); err != nil {
			return nil, err
		}
		output = &lumberjack.Logger{
			Filename:   cfg.LogFilePath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		}
	default:
		output = os.Stdout
	}
	logger.SetOutput(output)

	return &Logger{Logger: logger}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger}
}

// WithFields adds fields to a log entry.
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// LogRequest records one served HTTP request.
func (l *Logger) LogRequest(method, path, requestID, clientIP string, statusCode int, durationMS int64) {
	entry := l.WithFields(Fields{
		"method":      method,
		"path":        path,
		"request_id":  requestID,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": durationMS,
		"type":        "request",
	})
	switch {
	case statusCode >= 500:
		entry.Error("HTTP request")
	case statusCode >= 400:
		entry.Warn("HTTP request")
	default:
		entry.Info("HTTP request")
	}
}
