package config

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lumeray/royalty_backend/appctx"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logLevelFromEnv())
	logg.SetOutput(os.Stdout)
}

// LOG_LEVEL: debug | info | warn | error (default error).
func logLevelFromEnv() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// WithCorrelationId copies the request correlation id (set by the HTTP
// middleware) into the field set, so every log line of one upload or one
// worker pass can be grepped together.
func WithCorrelationId(ctx context.Context, fields logrus.Fields) logrus.Fields {
	if ctx == nil {
		return fields
	}
	if cid, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok && cid != "" {
		fields["correlation_id"] = cid
	}
	return fields
}

func LogError(ctx context.Context, logger *logrus.Logger, moduleName string, funcName string, message string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  message,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(WithCorrelationId(ctx, fields)).Error(err.Error())
}
