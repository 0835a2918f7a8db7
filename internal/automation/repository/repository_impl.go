package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jarvis360/revenuecore/internal/automation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Automation, error) {
	var auto domain.Automation
	err := conn.WithContext(ctx).Raw(
		`SELECT id, org_id, name, description, natural_language, actions,
		        is_active, schedule_text, last_run, created_at
		 FROM automations WHERE id = ?`,
		id,
	).Scan(&auto).Error
	if err != nil {
		return nil, err
	}
	if auto.ID == 0 {
		return nil, nil
	}
	return &auto, nil
}

func (r *repo) InsertExecution(ctx context.Context, conn *gorm.DB, exec *domain.Execution) error {
	return conn.WithContext(ctx).Create(exec).Error
}

func (r *repo) UpdateExecution(ctx context.Context, conn *gorm.DB, exec *domain.Execution) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE automation_executions
		 SET finished_at = ?, success = ?, result = ?
		 WHERE id = ?`,
		exec.FinishedAt,
		exec.Success,
		exec.Result,
		exec.ID,
	).Error
}

func (r *repo) TouchLastRun(ctx context.Context, conn *gorm.DB, id snowflake.ID, at time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE automations SET last_run = ? WHERE id = ?`,
		at,
		id,
	).Error
}
