package queue

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jarvis360/revenuecore/internal/importer"
)

var Module = fx.Module("queue",
	fx.Provide(New),
	fx.Provide(func(q *Queue) importer.Enqueuer {
		if !q.Enabled() {
			return nil
		}
		return q
	}),
	fx.Invoke(func(lc fx.Lifecycle, q *Queue, logger *zap.Logger) {
		if !q.Enabled() {
			return
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				logger.Info("closing import job queue")
				return q.Close()
			},
		})
	}),
)
