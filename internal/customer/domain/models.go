package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Customer is a tenant-scoped identity derived from uploaded billing data,
// keyed by (org_id, external_id). Repeated imports reuse the same row.
type Customer struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;uniqueIndex:idx_customers_org_external" json:"organization_id"`
	ExternalID string       `gorm:"uniqueIndex:idx_customers_org_external" json:"external_id"`
	Name       string       `gorm:"not null;default:''" json:"name"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

type Repository interface {
	// GetOrCreate resolves the customer for (orgID, externalID), inserting
	// when absent. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, db *gorm.DB, customer *Customer) (*Customer, bool, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, externalID string) (*Customer, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("not_found")
)
