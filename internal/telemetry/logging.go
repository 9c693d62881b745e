package telemetry

import (
	"log/slog"

	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
)

// SetupLogging routes slog through logrus and, when provider is set, through the
// otel log bridge as well. The result becomes the slog default.
func SetupLogging(level slog.Level, provider otellog.LoggerProvider) *slog.Logger {
	logrus.SetLevel(logrusLevel(level))

	handlers := []slog.Handler{
		sloglogrus.Option{Level: level, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler("walkgraph", otelslog.WithLoggerProvider(provider)))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(logger)
	return logger
}

func logrusLevel(level slog.Level) logrus.Level {
	switch {
	case level <= slog.LevelDebug:
		return logrus.DebugLevel
	case level <= slog.LevelInfo:
		return logrus.InfoLevel
	case level <= slog.LevelWarn:
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}
