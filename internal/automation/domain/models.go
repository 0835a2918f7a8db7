// Package domain models user-defined automations and their execution log.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action is one step of an automation's action list.
type Action struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Automation is a user-defined rule: a natural-language description plus a
// JSON list of actions to run.
type Automation struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID   `gorm:"not null;index" json:"organization_id"`
	Name            string         `gorm:"not null" json:"name"`
	Description     string         `gorm:"not null;default:''" json:"description"`
	NaturalLanguage string         `gorm:"not null;default:''" json:"natural_language"`
	Actions         datatypes.JSON `gorm:"type:json" json:"actions"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	ScheduleText    string         `gorm:"not null;default:''" json:"schedule_text"`
	LastRun         *time.Time     `json:"last_run,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Automation) TableName() string { return "automations" }

// Execution is one logged run of an automation.
type Execution struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	AutomationID snowflake.ID   `gorm:"not null;index" json:"automation_id"`
	StartedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Success      bool           `gorm:"not null;default:false" json:"success"`
	Result       datatypes.JSON `gorm:"type:json" json:"result,omitempty"`
}

// TableName sets the database table name.
func (Execution) TableName() string { return "automation_executions" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Automation, error)
	InsertExecution(ctx context.Context, db *gorm.DB, exec *Execution) error
	UpdateExecution(ctx context.Context, db *gorm.DB, exec *Execution) error
	TouchLastRun(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}

var ErrNotFound = errors.New("not_found")
