package importer

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/config"
	"github.com/jarvis360/revenuecore/internal/observability/metrics"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
	pkgdb "github.com/jarvis360/revenuecore/pkg/db"
)

// Mode selects how a triggered import executes.
type Mode string

const (
	// ModeSync runs the import on the calling goroutine.
	ModeSync Mode = "sync"
	// ModeBackground runs the import on a fresh goroutine.
	ModeBackground Mode = "background"
	// ModeQueue hands the import to the job queue, falling back to
	// ModeBackground when no queue is configured.
	ModeQueue Mode = "queue"
)

var ErrUploadNotFound = errors.New("upload_not_found")

// Enqueuer is the slice of the job queue the scheduler needs.
type Enqueuer interface {
	Enabled() bool
	Enqueue(ctx context.Context, uploadID snowflake.ID) error
}

// Scheduler decides when an upload import runs and owns the upload's status
// transitions. Concurrency control is the claim: a conditional Pending ->
// Importing update that only one caller can win, regardless of how many
// goroutines, workers, or processes race for the same upload.
type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	importCfg     *config.ImportConfigHolder
	uploads       uploaddomain.Repository
	subscriptions subscriptiondomain.Repository
	importer      *Importer
	queue         Enqueuer
}

func NewScheduler(
	db *gorm.DB,
	log *zap.Logger,
	clk clock.Clock,
	importCfg *config.ImportConfigHolder,
	uploads uploaddomain.Repository,
	subscriptions subscriptiondomain.Repository,
	imp *Importer,
	queue Enqueuer,
) *Scheduler {
	return &Scheduler{
		db:            db,
		log:           log,
		clock:         clk,
		importCfg:     importCfg,
		uploads:       uploads,
		subscriptions: subscriptions,
		importer:      imp,
		queue:         queue,
	}
}

// DefaultMode resolves the configured trigger mode, downgrading ModeQueue to
// ModeBackground when no queue is wired.
func (s *Scheduler) DefaultMode() Mode {
	mode := Mode(s.importCfg.Current().TriggerMode)
	switch mode {
	case ModeSync, ModeBackground:
		return mode
	case ModeQueue:
		if s.queue != nil && s.queue.Enabled() {
			return ModeQueue
		}
		return ModeBackground
	default:
		return ModeBackground
	}
}

// Schedule triggers the import of an upload. Uploads that already produced
// subscriptions are skipped so re-saving a record never duplicates data.
func (s *Scheduler) Schedule(ctx context.Context, uploadID snowflake.ID, mode Mode) error {
	upload, err := s.uploads.FindByID(ctx, s.db, uploadID)
	if err != nil {
		return err
	}
	if upload == nil {
		return ErrUploadNotFound
	}
	if upload.StoragePath == "" {
		return nil
	}

	count, err := s.subscriptions.CountByUpload(ctx, s.db, uploadID)
	if err != nil {
		return err
	}
	if count > 0 {
		// A Pending upload with rows is a reclaimed partial import: the data
		// is there, only the status transition was lost. Finish it instead of
		// leaving it pending forever.
		if upload.Status == uploaddomain.StatusPending {
			return s.completeWithExisting(ctx, uploadID, count)
		}
		s.log.Debug("skipping import, subscriptions already exist",
			zap.Int64("upload_id", int64(uploadID)),
		)
		return nil
	}

	switch mode {
	case ModeSync:
		return s.Execute(ctx, uploadID, ModeSync)
	case ModeQueue:
		if s.queue != nil && s.queue.Enabled() {
			if err := s.queue.Enqueue(ctx, uploadID); err == nil {
				metrics.Import().IncQueueJob("enqueued")
				return nil
			} else {
				s.log.Warn("enqueue failed, falling back to background import",
					zap.Int64("upload_id", int64(uploadID)),
					zap.Error(err),
				)
			}
		}
		fallthrough
	case ModeBackground:
		go func() {
			if err := s.Execute(context.Background(), uploadID, ModeBackground); err != nil {
				s.log.Error("background import failed",
					zap.Int64("upload_id", int64(uploadID)),
					zap.Error(err),
				)
			}
		}()
		return nil
	default:
		return s.Schedule(ctx, uploadID, s.DefaultMode())
	}
}

// completeWithExisting claims the upload and marks it complete with the rows
// a prior interrupted attempt already committed.
func (s *Scheduler) completeWithExisting(ctx context.Context, uploadID snowflake.ID, count int64) error {
	claimed, err := s.uploads.Claim(ctx, s.db, uploadID, s.clock.Now())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	if err := s.uploads.MarkComplete(ctx, s.db, uploadID, s.clock.Now(), int(count)); err != nil {
		return err
	}
	metrics.Import().IncImportFinished(metrics.ImportOutcomeComplete)
	s.log.Info("completed upload from existing subscriptions",
		zap.Int64("upload_id", int64(uploadID)),
		zap.Int64("subscriptions_existing", count),
	)
	return nil
}

// Execute claims the upload and runs the import, recording the outcome on the
// upload row. Losing the claim is a no-op. In ModeQueue, transient storage
// errors are returned after the Error transition so the caller can retry;
// the redelivered job reclaims the Error row and starts over. Every other
// failure is absorbed into the upload's error state.
func (s *Scheduler) Execute(ctx context.Context, uploadID snowflake.ID, mode Mode) (err error) {
	upload, ferr := s.uploads.FindByID(ctx, s.db, uploadID)
	if ferr != nil {
		return ferr
	}
	if upload == nil {
		return ErrUploadNotFound
	}

	claimed, cerr := s.uploads.Claim(ctx, s.db, uploadID, s.clock.Now())
	if cerr != nil {
		return cerr
	}
	if !claimed && mode == ModeQueue {
		// Redelivered retry of a transient failure: take the Error row back
		// and clear whatever the failed attempt committed so the re-run
		// cannot duplicate rows.
		claimed, cerr = s.uploads.ClaimErrored(ctx, s.db, uploadID, s.clock.Now())
		if cerr != nil {
			return cerr
		}
		if claimed {
			if derr := s.subscriptions.DeleteByUpload(ctx, s.db, uploadID); derr != nil {
				if merr := s.uploads.MarkError(ctx, s.db, uploadID, derr.Error()); merr != nil {
					s.log.Error("failed to record cleanup error on upload",
						zap.Int64("upload_id", int64(uploadID)),
						zap.Error(merr),
					)
				}
				return derr
			}
		}
	}
	if !claimed {
		metrics.Import().IncClaimRaceLost()
		s.log.Debug("skipping import, upload claimed elsewhere",
			zap.Int64("upload_id", int64(uploadID)),
		)
		return nil
	}

	metrics.Import().IncImportStarted(string(mode))
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("import panicked",
				zap.Int64("upload_id", int64(uploadID)),
				zap.Any("panic", r),
			)
			if merr := s.uploads.MarkError(ctx, s.db, uploadID, "import failed (see server logs)"); merr != nil {
				s.log.Error("failed to record panic on upload",
					zap.Int64("upload_id", int64(uploadID)),
					zap.Error(merr),
				)
			}
			metrics.Import().IncImportFinished(metrics.ImportOutcomeError)
		}
		metrics.Import().ObserveImportDuration(s.clock.Now().Sub(start))
	}()

	created, ierr := s.importer.ImportUpload(ctx, upload)
	if ierr != nil {
		if merr := s.uploads.MarkError(ctx, s.db, uploadID, ierr.Error()); merr != nil {
			s.log.Error("failed to record import error on upload",
				zap.Int64("upload_id", int64(uploadID)),
				zap.Error(merr),
			)
		}
		metrics.Import().IncImportFinished(metrics.ImportOutcomeError)
		s.log.Error("import failed",
			zap.Int64("upload_id", int64(uploadID)),
			zap.Int("created_before_failure", created),
			zap.Error(ierr),
		)
		if mode == ModeQueue && pkgdb.IsTransientErr(ierr) {
			return ierr
		}
		return nil
	}

	if merr := s.uploads.MarkComplete(ctx, s.db, uploadID, s.clock.Now(), created); merr != nil {
		s.log.Error("failed to mark upload complete",
			zap.Int64("upload_id", int64(uploadID)),
			zap.Error(merr),
		)
		return merr
	}

	metrics.Import().IncImportFinished(metrics.ImportOutcomeComplete)
	metrics.Import().AddSubscriptionsCreated(created)
	s.log.Info("import complete",
		zap.Int64("upload_id", int64(uploadID)),
		zap.Int("subscriptions_created", created),
	)
	return nil
}

const reimportBatch = 100

// ReimportPending schedules uploads still in the Pending state, oldest first.
// A limit <= 0 drains the whole backlog. It backs the operational "drain the
// backlog" entrypoint.
func (s *Scheduler) ReimportPending(ctx context.Context, limit int) (int, error) {
	if limit > 0 {
		pending, err := s.uploads.ListPending(ctx, s.db, limit)
		if err != nil {
			return 0, err
		}
		scheduled, _ := s.scheduleAll(ctx, pending, nil)
		return scheduled, nil
	}

	// Background-triggered uploads stay Pending until their goroutine claims
	// them, so a fixed-size list can return the same rows forever. Track what
	// was already handed out and grow the window until nothing new shows up.
	seen := make(map[snowflake.ID]struct{})
	scheduled := 0
	for {
		pending, err := s.uploads.ListPending(ctx, s.db, len(seen)+reimportBatch)
		if err != nil {
			return scheduled, err
		}
		n, visited := s.scheduleAll(ctx, pending, seen)
		scheduled += n
		if visited == 0 {
			return scheduled, nil
		}
	}
}

func (s *Scheduler) scheduleAll(ctx context.Context, pending []uploaddomain.CSVUpload, seen map[snowflake.ID]struct{}) (scheduled, visited int) {
	for i := range pending {
		id := pending[i].ID
		if seen != nil {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		visited++
		if err := s.Schedule(ctx, id, s.DefaultMode()); err != nil {
			s.log.Error("failed to schedule pending upload",
				zap.Int64("upload_id", int64(id)),
				zap.Error(err),
			)
			continue
		}
		scheduled++
	}
	return scheduled, visited
}
