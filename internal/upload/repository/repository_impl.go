package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jarvis360/revenuecore/internal/upload/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, upload *domain.CSVUpload) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO csv_uploads (id, org_id, filename, storage_path, status, error_message, subscriptions_created, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID,
		upload.OrgID,
		upload.Filename,
		upload.StoragePath,
		upload.Status,
		upload.ErrorMessage,
		upload.SubscriptionsCreated,
		upload.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.CSVUpload, error) {
	var upload domain.CSVUpload
	err := conn.WithContext(ctx).Raw(
		`SELECT id, org_id, filename, storage_path, status, status_started_at,
		        completed_at, error_message, subscriptions_created, created_at
		 FROM csv_uploads WHERE id = ?`,
		id,
	).Scan(&upload).Error
	if err != nil {
		return nil, err
	}
	if upload.ID == 0 {
		return nil, nil
	}
	return &upload, nil
}

func (r *repo) ListPending(ctx context.Context, conn *gorm.DB, limit int) ([]domain.CSVUpload, error) {
	var uploads []domain.CSVUpload
	err := conn.WithContext(ctx).Raw(
		`SELECT id, org_id, filename, storage_path, status, status_started_at,
		        completed_at, error_message, subscriptions_created, created_at
		 FROM csv_uploads
		 WHERE status = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		domain.StatusPending,
		limit,
	).Scan(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *repo) Claim(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE csv_uploads
		 SET status = ?,
		     status_started_at = ?,
		     error_message = '',
		     subscriptions_created = 0
		 WHERE id = ?
		   AND status = ?`,
		domain.StatusImporting,
		now,
		id,
		domain.StatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ClaimErrored(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE csv_uploads
		 SET status = ?,
		     status_started_at = ?,
		     error_message = '',
		     subscriptions_created = 0
		 WHERE id = ?
		   AND status = ?`,
		domain.StatusImporting,
		now,
		id,
		domain.StatusError,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkComplete(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time, created int) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE csv_uploads
		 SET status = ?,
		     completed_at = ?,
		     subscriptions_created = ?
		 WHERE id = ?
		   AND status = ?`,
		domain.StatusComplete,
		now,
		created,
		id,
		domain.StatusImporting,
	).Error
}

func (r *repo) MarkError(ctx context.Context, conn *gorm.DB, id snowflake.ID, message string) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE csv_uploads
		 SET status = ?,
		     error_message = ?
		 WHERE id = ?
		   AND status = ?`,
		domain.StatusError,
		domain.TruncateError(message),
		id,
		domain.StatusImporting,
	).Error
}

func (r *repo) ReclaimStale(ctx context.Context, conn *gorm.DB, cutoff time.Time, limit int) ([]snowflake.ID, error) {
	var stuck []snowflake.ID
	err := conn.WithContext(ctx).Raw(
		`SELECT id FROM csv_uploads
		 WHERE status = ?
		   AND status_started_at IS NOT NULL
		   AND status_started_at <= ?
		 ORDER BY status_started_at ASC
		 LIMIT ?`,
		domain.StatusImporting,
		cutoff,
		limit,
	).Scan(&stuck).Error
	if err != nil {
		return nil, err
	}

	reclaimed := make([]snowflake.ID, 0, len(stuck))
	for _, id := range stuck {
		result := conn.WithContext(ctx).Exec(
			`UPDATE csv_uploads
			 SET status = ?, status_started_at = NULL
			 WHERE id = ?
			   AND status = ?
			   AND status_started_at <= ?`,
			domain.StatusPending,
			id,
			domain.StatusImporting,
			cutoff,
		)
		if result.Error != nil {
			return reclaimed, result.Error
		}
		if result.RowsAffected > 0 {
			reclaimed = append(reclaimed, id)
		}
	}
	return reclaimed, nil
}
