// Package importer turns an uploaded CSV into customer and subscription rows.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/blob"
	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/config"
	customerdomain "github.com/jarvis360/revenuecore/internal/customer/domain"
	"github.com/jarvis360/revenuecore/internal/normalize"
	"github.com/jarvis360/revenuecore/internal/observability/metrics"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
	pkgdb "github.com/jarvis360/revenuecore/pkg/db"
)

// Importer reads an upload's bytes, normalizes them, and writes the resulting
// subscriptions in chunked transactions. It never flips upload status; that
// belongs to the Scheduler.
type Importer struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	blobs     blob.Store
	importCfg *config.ImportConfigHolder

	customers     customerdomain.Repository
	subscriptions subscriptiondomain.Repository

	sleep func(time.Duration)
}

func NewImporter(
	db *gorm.DB,
	log *zap.Logger,
	genID *snowflake.Node,
	clk clock.Clock,
	blobs blob.Store,
	importCfg *config.ImportConfigHolder,
	customers customerdomain.Repository,
	subscriptions subscriptiondomain.Repository,
) *Importer {
	return &Importer{
		db:            db,
		log:           log,
		genID:         genID,
		clock:         clk,
		blobs:         blobs,
		importCfg:     importCfg,
		customers:     customers,
		subscriptions: subscriptions,
		sleep:         time.Sleep,
	}
}

// ImportUpload imports one claimed upload and returns the number of
// subscriptions created. Unreadable blobs yield (0, nil); only write
// failures surface as errors, with the rows written so far counted.
func (im *Importer) ImportUpload(ctx context.Context, upload *uploaddomain.CSVUpload) (int, error) {
	if upload == nil || upload.StoragePath == "" {
		return 0, nil
	}

	raw, err := im.blobs.Get(ctx, upload.StoragePath)
	if err != nil {
		im.log.Warn("upload blob unreadable",
			zap.Int64("upload_id", int64(upload.ID)),
			zap.String("storage_path", upload.StoragePath),
			zap.Error(err),
		)
		return 0, nil
	}

	cfg := im.importCfg.Current()
	text := strings.ToValidUTF8(string(raw), "")
	records := normalize.NormalizeWith(text, cfg.SampleLines, normalize.Candidates{
		ID:      cfg.IDColumns,
		Revenue: cfg.RevenueColumns,
		Date:    cfg.DateColumns,
	})
	if len(records) == 0 {
		return 0, nil
	}

	subs, err := im.buildSubscriptions(ctx, upload, records)
	if err != nil {
		return 0, err
	}

	return im.writeChunked(ctx, cfg, subs)
}

func (im *Importer) buildSubscriptions(ctx context.Context, upload *uploaddomain.CSVUpload, records []normalize.Record) ([]*subscriptiondomain.Subscription, error) {
	now := im.clock.Now()
	uploadID := upload.ID
	subs := make([]*subscriptiondomain.Subscription, 0, len(records))
	// Rows sharing an external id hit the same customer; cache the resolution.
	resolved := make(map[string]snowflake.ID)

	for _, rec := range records {
		externalID := rec.CustomerID
		customerID, ok := resolved[externalID]
		if !ok {
			name := rec.Raw["name"]
			if name == "" {
				name = externalID
			}
			customer, _, err := im.customers.GetOrCreate(ctx, im.db, &customerdomain.Customer{
				ID:         im.genID.Generate(),
				OrgID:      upload.OrgID,
				ExternalID: externalID,
				Name:       name,
				CreatedAt:  now,
			})
			if err != nil {
				return nil, err
			}
			customerID = customer.ID
			resolved[externalID] = customerID
		}

		subs = append(subs, &subscriptiondomain.Subscription{
			ID:             im.genID.Generate(),
			OrgID:          upload.OrgID,
			CustomerID:     customerID,
			MRR:            decimal.NewFromFloat(rec.MRR).Round(2),
			StartDate:      rec.SignupDate,
			SourceUploadID: &uploadID,
			CreatedAt:      now,
		})
	}
	return subs, nil
}

// writeChunked persists subscriptions in fixed-size batches, each in its own
// transaction. Transient storage errors back off linearly and retry; the
// error escalates once attempts are exhausted, with prior chunks kept.
func (im *Importer) writeChunked(ctx context.Context, cfg config.ImportConfig, subs []*subscriptiondomain.Subscription) (int, error) {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 200
	}
	maxAttempts := cfg.MaxWriteAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	created := 0
	for start := 0; start < len(subs); start += chunkSize {
		end := start + chunkSize
		if end > len(subs) {
			end = len(subs)
		}
		batch := subs[start:end]

		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			lastErr = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return im.subscriptions.InsertBatch(ctx, tx, batch)
			})
			if lastErr == nil {
				break
			}
			if !pkgdb.IsTransientErr(lastErr) || attempt == maxAttempts {
				return created, lastErr
			}
			metrics.Import().IncChunkRetry()
			im.log.Warn("subscription chunk write retry",
				zap.Int("attempt", attempt),
				zap.Int("chunk_start", start),
				zap.Error(lastErr),
			)
			im.sleep(cfg.RetryBaseDelay * time.Duration(attempt))
		}
		if lastErr != nil {
			return created, lastErr
		}
		created += len(batch)
	}
	return created, nil
}
