// Package worker consumes queued import jobs. Failed jobs are re-enqueued
// with exponential backoff up to a bounded attempt count, then dropped; the
// upload row already carries the error state at that point.
package worker

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/jarvis360/revenuecore/internal/config"
	"github.com/jarvis360/revenuecore/internal/importer"
	"github.com/jarvis360/revenuecore/internal/observability/metrics"
	"github.com/jarvis360/revenuecore/internal/queue"
)

const dequeueTimeout = 2 * time.Second

type Worker struct {
	log       *zap.Logger
	importCfg *config.ImportConfigHolder
	queue     *queue.Queue
	scheduler *importer.Scheduler

	sleep func(time.Duration)
}

func New(log *zap.Logger, importCfg *config.ImportConfigHolder, q *queue.Queue, scheduler *importer.Scheduler) *Worker {
	return &Worker{
		log:       log,
		importCfg: importCfg,
		queue:     q,
		scheduler: scheduler,
		sleep:     time.Sleep,
	}
}

// RunForever consumes jobs until ctx is cancelled.
func (w *Worker) RunForever(ctx context.Context) {
	if !w.queue.Enabled() {
		w.log.Info("import queue disabled, worker idle")
		<-ctx.Done()
		return
	}
	w.log.Info("import worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("import worker stopped")
			return
		default:
		}
		if err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("worker iteration failed", zap.Error(err))
			w.sleep(time.Second)
		}
	}
}

// RunOnce waits briefly for one job and processes it. An empty queue is not
// an error.
func (w *Worker) RunOnce(ctx context.Context) error {
	job, err := w.queue.Dequeue(ctx, dequeueTimeout)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	w.process(ctx, *job)
	return nil
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	uploadID := snowflake.ID(job.UploadID)
	err := w.scheduler.Execute(ctx, uploadID, importer.ModeQueue)
	if err == nil {
		return
	}

	cfg := w.importCfg.Current()
	next := job.Attempt + 1
	if next >= cfg.QueueMaxAttempts {
		metrics.Import().IncQueueJob("dropped")
		w.log.Error("import job exhausted retries",
			zap.String("job_id", job.ID),
			zap.Int64("upload_id", job.UploadID),
			zap.Int("attempts", next),
			zap.Error(err),
		)
		return
	}

	// Exponential backoff before redelivery: base, 2x, 4x, ...
	w.sleep(cfg.QueueRetryBaseDelay << uint(job.Attempt))
	retry := queue.Job{ID: job.ID, UploadID: job.UploadID, Attempt: next}
	if qerr := w.queue.EnqueueJob(ctx, retry); qerr != nil {
		w.log.Error("failed to re-enqueue import job",
			zap.String("job_id", job.ID),
			zap.Int64("upload_id", job.UploadID),
			zap.Error(qerr),
		)
		return
	}
	metrics.Import().IncQueueJob("retried")
	w.log.Warn("import job re-enqueued after transient failure",
		zap.String("job_id", job.ID),
		zap.Int64("upload_id", job.UploadID),
		zap.Int("attempt", next),
		zap.Error(err),
	)
}
