package health

import (
	"context"
	"log/slog"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/core/response"
)

// Check is a named dependency probe such as kvstore.Store.Ping.
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Readiness runs every check in order and answers "READY", or 503 on the
// first failure. The failing check is logged; the response never carries its error.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx C) handler.Response {
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					slog.String("check", c.Name),
					logger.Error(err),
				)
				return response.Error(response.ErrServiceUnavailable.WithCode("not_ready"))
			}
		}
		return response.String("READY")
	}
}
