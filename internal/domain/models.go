package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunTrigger represents what started a diagnostic run
type RunTrigger string

const (
	TriggerManual    RunTrigger = "manual"
	TriggerAPI       RunTrigger = "api"
	TriggerScheduled RunTrigger = "scheduled"
)

// IsValid checks if the RunTrigger is a valid enum value
func (rt RunTrigger) IsValid() bool {
	switch rt {
	case TriggerManual, TriggerAPI, TriggerScheduled:
		return true
	}
	return false
}

// RunStatus represents the overall outcome of a diagnostic run
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// IsValid checks if the RunStatus is a valid enum value
func (rs RunStatus) IsValid() bool {
	switch rs {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	}
	return false
}

// StageName identifies one of the connectivity stages
type StageName string

const (
	StageStorage   StageName = "storage"
	StageDatabase  StageName = "database"
	StageWarehouse StageName = "warehouse"
)

// StageStatus represents the outcome of a single stage
type StageStatus string

const (
	StageStatusPassed StageStatus = "passed"
	StageStatusFailed StageStatus = "failed"
)

// ResultSuccess is the result string recorded when every stage passed
const ResultSuccess = "Success"

// StageResult captures the outcome of one stage within a run. Runs only
// record the stages that actually executed; the first failure stops the
// sequence, so later stages never appear.
type StageResult struct {
	Name       StageName   `json:"name"`
	Status     StageStatus `json:"status"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMS int64       `json:"durationMs"`
}

// DiagnosticRun represents one persisted execution of the connectivity checks
type DiagnosticRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	Trigger     RunTrigger `gorm:"type:varchar(20);not null"`
	Status      RunStatus  `gorm:"type:varchar(20);not null;index"`
	Result      string     `gorm:"type:varchar(500);not null"`
	FailedStage *StageName `gorm:"type:varchar(20);column:failed_stage"`
	Stages      string     `gorm:"type:jsonb"`
	Notes       string     `gorm:"type:varchar(500)"`
	StartedAt   time.Time  `gorm:"not null;index;column:started_at"`
	FinishedAt  time.Time  `gorm:"not null;column:finished_at"`
	DurationMS  int64      `gorm:"not null;column:duration_ms"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// SetStageResults serializes stage outcomes into the jsonb column
func (r *DiagnosticRun) SetStageResults(stages []StageResult) error {
	data, err := json.Marshal(stages)
	if err != nil {
		return err
	}
	r.Stages = string(data)
	return nil
}

// StageResults deserializes stage outcomes from the jsonb column
func (r *DiagnosticRun) StageResults() ([]StageResult, error) {
	if r.Stages == "" {
		return nil, nil
	}
	var stages []StageResult
	if err := json.Unmarshal([]byte(r.Stages), &stages); err != nil {
		return nil, err
	}
	return stages, nil
}
