// Package reaper recovers uploads stranded in the importing state, typically
// after a process crash between claim and completion. Reclaim is the same
// conditional-update primitive as the claim, so a still-running import can
// never be yanked back by a racing sweep reading stale data.
package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/config"
	"github.com/jarvis360/revenuecore/internal/importer"
	"github.com/jarvis360/revenuecore/internal/observability/metrics"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
)

const (
	sweepInterval = time.Minute
	sweepBatch    = 100
)

type Reaper struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	importCfg *config.ImportConfigHolder
	uploads   uploaddomain.Repository
	scheduler *importer.Scheduler
}

func New(
	db *gorm.DB,
	log *zap.Logger,
	clk clock.Clock,
	importCfg *config.ImportConfigHolder,
	uploads uploaddomain.Repository,
	scheduler *importer.Scheduler,
) *Reaper {
	return &Reaper{
		db:        db,
		log:       log,
		clock:     clk,
		importCfg: importCfg,
		uploads:   uploads,
		scheduler: scheduler,
	}
}

// RunOnce sweeps one batch of stale imports back to pending and re-schedules
// them. Returns the number of uploads reclaimed.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	cfg := r.importCfg.Current()
	cutoff := r.clock.Now().Add(-cfg.ReclaimAfter)

	reclaimed, err := r.uploads.ReclaimStale(ctx, r.db, cutoff, sweepBatch)
	if err != nil {
		return len(reclaimed), err
	}
	if len(reclaimed) == 0 {
		return 0, nil
	}

	metrics.Import().AddReaperReclaims(len(reclaimed))
	r.log.Warn("reclaimed stale imports",
		zap.Int("count", len(reclaimed)),
		zap.Time("cutoff", cutoff),
	)

	for _, id := range reclaimed {
		if err := r.scheduler.Schedule(ctx, id, r.scheduler.DefaultMode()); err != nil {
			r.log.Error("failed to re-schedule reclaimed upload",
				zap.Int64("upload_id", int64(id)),
				zap.Error(err),
			)
		}
	}
	return len(reclaimed), nil
}

// RunForever sweeps on a fixed interval until ctx is cancelled.
func (r *Reaper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("stale import reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Error("stale import sweep failed", zap.Error(err))
			}
		}
	}
}
