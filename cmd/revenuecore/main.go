package main

import (
	"context"
	"flag"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jarvis360/revenuecore/internal/automation"
	"github.com/jarvis360/revenuecore/internal/blob"
	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/config"
	"github.com/jarvis360/revenuecore/internal/customer"
	"github.com/jarvis360/revenuecore/internal/importer"
	"github.com/jarvis360/revenuecore/internal/insights"
	"github.com/jarvis360/revenuecore/internal/logger"
	"github.com/jarvis360/revenuecore/internal/migration"
	"github.com/jarvis360/revenuecore/internal/queue"
	"github.com/jarvis360/revenuecore/internal/reaper"
	"github.com/jarvis360/revenuecore/internal/subscription"
	"github.com/jarvis360/revenuecore/internal/upload"
	"github.com/jarvis360/revenuecore/internal/worker"
	"github.com/jarvis360/revenuecore/pkg/db"
)

func main() {
	reimport := flag.Bool("reimport-pending", false, "schedule all pending uploads on startup")
	flag.Parse()

	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		blob.Module,
		migration.Module,

		// Domain modules
		customer.Module,
		subscription.Module,
		upload.Module,
		importer.Module,
		insights.Module,
		automation.Module,

		// Background machinery
		queue.Module,
		worker.Module,
		reaper.Module,

		fx.Invoke(func(lc fx.Lifecycle, s *importer.Scheduler, log *zap.Logger) {
			if !*reimport {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					scheduled, err := s.ReimportPending(context.Background(), 0)
					if err != nil {
						return err
					}
					log.Info("scheduled pending uploads", zap.Int("count", scheduled))
					return nil
				},
			})
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
