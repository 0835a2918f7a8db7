// Package domain contains persistence models for imported subscriptions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription is one imported billing snapshot row. Rows are immutable once
// created; re-imports create nothing when rows for the source upload exist,
// except a queued retry which first clears the rows its failed attempt left.
type Subscription struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	CustomerID     snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	MRR            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"mrr"`
	StartDate      *time.Time      `gorm:"index" json:"start_date,omitempty"`
	SourceUploadID *snowflake.ID   `gorm:"index" json:"source_upload_id,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// InsightRow is the projection the insights service reads: one subscription
// joined with its customer's identifying fields.
type InsightRow struct {
	CustomerPK snowflake.ID
	ExternalID string
	Name       string
	MRR        decimal.Decimal
	StartDate  *time.Time
}

type Repository interface {
	// InsertBatch writes the given rows in a single multi-row statement.
	// Callers wrap it in a transaction and size the batch themselves.
	InsertBatch(ctx context.Context, db *gorm.DB, subs []*Subscription) error
	// CountByUpload reports how many rows reference the upload; used as the
	// re-import idempotency guard.
	CountByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error)
	// DeleteByUpload removes every row referencing the upload so a retried
	// import never duplicates chunks its failed attempt already committed.
	DeleteByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) error
	// ListForInsights returns org-scoped rows through the customer relation,
	// excluding rows starting before since when set.
	ListForInsights(ctx context.Context, db *gorm.DB, orgID snowflake.ID, since *time.Time) ([]InsightRow, error)
}
