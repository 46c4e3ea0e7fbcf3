// Package logger builds slog loggers and provides attribute helpers so every
// component logs with the same keys.
//
// Create a logger for the current environment:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, "knowledgeweb"),
//		logger.WithLevelName(cfg.LogLevel),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// Development uses text output at debug level; staging and production use
// JSON at info level.
//
// Context extractors add request-scoped attributes automatically:
//
//	log := logger.New(
//		logger.WithProduction("knowledgeweb"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			id := middleware.GetRequestID(ctx)
//			return logger.RequestID(id), id != ""
//		}),
//	)
//
// Attribute helpers return an empty slog.Attr for nil or empty inputs, which
// slog drops, so callers can pass optional values without checks:
//
//	log.ErrorContext(ctx, "session persist failed",
//		logger.Error(err),
//		logger.SessionID(rec.ID),
//		logger.Identity(rec.Identity),
//	)
//
// SessionID logs only a short prefix; full session ids are credentials.
package logger
