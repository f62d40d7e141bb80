package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type RunDTO struct {
	ID          uuid.UUID     `json:"id"`
	Trigger     RunTrigger    `json:"trigger"`
	Status      RunStatus     `json:"status"`
	Result      string        `json:"result"`
	FailedStage *StageName    `json:"failedStage,omitempty"`
	Stages      []StageResult `json:"stages"`
	Notes       string        `json:"notes,omitempty"`
	StartedAt   string        `json:"startedAt"`  // ISO 8601
	FinishedAt  string        `json:"finishedAt"` // ISO 8601
	DurationMS  int64         `json:"durationMs"`
	CreatedAt   string        `json:"createdAt"` // ISO 8601
}

// RunListResponse wraps a page of runs
type RunListResponse struct {
	Runs   []RunDTO `json:"runs"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Request DTOs

type TriggerRunRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=500"`
}
