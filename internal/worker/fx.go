package worker

import (
	"context"

	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/queue"
)

var Module = fx.Module("worker",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, w *Worker, q *queue.Queue) {
		if !q.Enabled() {
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go w.RunForever(ctx)
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
