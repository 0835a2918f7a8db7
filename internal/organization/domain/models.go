package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Organization is the tenant boundary: every customer, subscription, and
// upload hangs off exactly one org.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Slug      string       `gorm:"not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("not_found")
)
