package mapper

import (
	"github.com/straye-as/preflight/internal/domain"
)

const isoFormat = "2006-01-02T15:04:05Z"

// ToRunDTO converts DiagnosticRun to RunDTO
func ToRunDTO(run *domain.DiagnosticRun) domain.RunDTO {
	// Corrupt stage data renders as an empty list
	stages, _ := run.StageResults()
	if stages == nil {
		stages = []domain.StageResult{}
	}

	return domain.RunDTO{
		ID:          run.ID,
		Trigger:     run.Trigger,
		Status:      run.Status,
		Result:      run.Result,
		FailedStage: run.FailedStage,
		Stages:      stages,
		Notes:       run.Notes,
		StartedAt:   run.StartedAt.UTC().Format(isoFormat),
		FinishedAt:  run.FinishedAt.UTC().Format(isoFormat),
		DurationMS:  run.DurationMS,
		CreatedAt:   run.CreatedAt.UTC().Format(isoFormat),
	}
}

// ToRunDTOs converts a slice of runs
func ToRunDTOs(runs []domain.DiagnosticRun) []domain.RunDTO {
	dtos := make([]domain.RunDTO, len(runs))
	for i := range runs {
		dtos[i] = ToRunDTO(&runs[i])
	}
	return dtos
}
