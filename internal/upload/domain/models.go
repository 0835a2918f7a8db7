// Package domain models uploaded CSV artifacts and their import lifecycle.
//
// Status moves Pending -> Importing -> {Complete, Error}. The only legal
// mutation path is the conditional update primitives on Repository: a single
// UPDATE guarded by the current status whose rows-affected count tells the
// caller whether it won. No in-process lock backs this; exclusivity comes
// from the storage layer's atomicity, which holds across processes and
// workers that share nothing but the database.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Status is the import lifecycle state of an uploaded CSV.
type Status string

const (
	StatusPending   Status = "pending"
	StatusImporting Status = "importing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// ErrorMessageLimit bounds the diagnostic detail persisted on failures.
const ErrorMessageLimit = 1000

// CSVUpload persists one uploaded billing CSV for an organization.
type CSVUpload struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Filename             string       `gorm:"not null;default:''" json:"filename"`
	StoragePath          string       `gorm:"not null;default:''" json:"storage_path"`
	Status               Status       `gorm:"type:text;not null;default:'pending';index" json:"status"`
	StatusStartedAt      *time.Time   `json:"status_started_at,omitempty"`
	CompletedAt          *time.Time   `json:"completed_at,omitempty"`
	ErrorMessage         string       `gorm:"not null;default:''" json:"error_message"`
	SubscriptionsCreated int          `gorm:"not null;default:0" json:"subscriptions_created"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CSVUpload) TableName() string { return "csv_uploads" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, upload *CSVUpload) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CSVUpload, error)
	ListPending(ctx context.Context, db *gorm.DB, limit int) ([]CSVUpload, error)

	// Claim transitions Pending -> Importing in one conditional update and
	// reports whether this caller won. Losing is not an error.
	Claim(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	// ClaimErrored transitions Error -> Importing, same conditional-update
	// contract as Claim. Only queue redeliveries use it: a failed transient
	// attempt leaves the row in Error, and the retry must be able to take it
	// back.
	ClaimErrored(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	// MarkComplete transitions Importing -> Complete with the created count.
	MarkComplete(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time, created int) error
	// MarkError transitions Importing -> Error, truncating the message to
	// ErrorMessageLimit.
	MarkError(ctx context.Context, db *gorm.DB, id snowflake.ID, message string) error
	// ReclaimStale flips uploads stuck Importing since before cutoff back to
	// Pending, one conditional update each, and returns the reclaimed ids.
	ReclaimStale(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]snowflake.ID, error)
}

var (
	ErrNotFound = errors.New("not_found")
)

// TruncateError bounds a diagnostic message to ErrorMessageLimit characters.
func TruncateError(message string) string {
	if len(message) <= ErrorMessageLimit {
		return message
	}
	return message[:ErrorMessageLimit]
}
