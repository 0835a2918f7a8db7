// Package service persists uploaded CSVs and hands them to the import
// scheduler once the row is committed.
package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/blob"
	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/importer"
	organizationdomain "github.com/jarvis360/revenuecore/internal/organization/domain"
	"github.com/jarvis360/revenuecore/internal/orgcontext"
	"github.com/jarvis360/revenuecore/internal/upload/domain"
)

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	blobs     blob.Store
	uploads   domain.Repository
	scheduler *importer.Scheduler
}

func NewService(
	db *gorm.DB,
	log *zap.Logger,
	genID *snowflake.Node,
	clk clock.Clock,
	blobs blob.Store,
	uploads domain.Repository,
	scheduler *importer.Scheduler,
) *Service {
	return &Service{
		db:        db,
		log:       log,
		genID:     genID,
		clock:     clk,
		blobs:     blobs,
		uploads:   uploads,
		scheduler: scheduler,
	}
}

// CreateUpload stores the CSV bytes, persists the pending upload row, and
// triggers the import. The trigger fires only after the row is committed so
// background and queue consumers always observe the pending record.
func (s *Service) CreateUpload(ctx context.Context, orgID snowflake.ID, filename string, data []byte) (*domain.CSVUpload, error) {
	if orgID == 0 {
		if ctxOrg, ok := orgcontext.OrgIDFromContext(ctx); ok {
			orgID = ctxOrg
		}
	}
	if orgID == 0 {
		return nil, organizationdomain.ErrInvalidOrganization
	}
	filename = sanitizeFilename(filename)

	// Keys are relative to the blob store root.
	id := s.genID.Generate()
	key := fmt.Sprintf("%d_%s", id, filename)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store upload blob: %w", err)
	}

	upload := &domain.CSVUpload{
		ID:          id,
		OrgID:       orgID,
		Filename:    filename,
		StoragePath: key,
		Status:      domain.StatusPending,
		CreatedAt:   s.clock.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.uploads.Insert(ctx, tx, upload)
	})
	if err != nil {
		return nil, err
	}

	if err := s.scheduler.Schedule(ctx, upload.ID, s.scheduler.DefaultMode()); err != nil {
		s.log.Error("failed to trigger import for new upload",
			zap.Int64("upload_id", int64(upload.ID)),
			zap.Error(err),
		)
	}
	return upload, nil
}

// GetUpload loads one upload row for status inspection.
func (s *Service) GetUpload(ctx context.Context, id snowflake.ID) (*domain.CSVUpload, error) {
	upload, err := s.uploads.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, domain.ErrNotFound
	}
	return upload, nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" {
		return "upload.csv"
	}
	return name
}
