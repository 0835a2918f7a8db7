package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jarvis360/revenuecore/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, conn *gorm.DB, subs []*domain.Subscription) error {
	if len(subs) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(subs).Error
}

func (r *repo) CountByUpload(ctx context.Context, conn *gorm.DB, uploadID snowflake.ID) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM subscriptions WHERE source_upload_id = ?`,
		uploadID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) DeleteByUpload(ctx context.Context, conn *gorm.DB, uploadID snowflake.ID) error {
	return conn.WithContext(ctx).Exec(
		`DELETE FROM subscriptions WHERE source_upload_id = ?`,
		uploadID,
	).Error
}

func (r *repo) ListForInsights(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, since *time.Time) ([]domain.InsightRow, error) {
	query := `SELECT s.customer_id AS customer_pk, c.external_id, c.name, s.mrr, s.start_date
		 FROM subscriptions s
		 JOIN customers c ON c.id = s.customer_id
		 WHERE c.org_id = ?`
	args := []any{orgID}
	if since != nil {
		query += ` AND s.start_date >= ?`
		args = append(args, *since)
	}
	query += ` ORDER BY s.created_at ASC, s.id ASC`

	var rows []domain.InsightRow
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
