package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/domain"
	"github.com/straye-as/preflight/internal/mapper"
	"github.com/straye-as/preflight/internal/probe"
	"github.com/straye-as/preflight/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxResultLen = 500

// DiagnosticService runs the connectivity stages in order and records
// the outcome. Stages run strictly sequentially: the first failure
// stops the run, so a storage failure means the database target is
// never touched.
type DiagnosticService struct {
	probes  []probe.Prober
	runRepo *repository.RunRepository
	logger  *zap.Logger
}

// NewDiagnosticService creates the orchestrator. The probes run in the
// order given. runRepo may be nil when run history is disabled.
func NewDiagnosticService(
	probes []probe.Prober,
	runRepo *repository.RunRepository,
	logger *zap.Logger,
) *DiagnosticService {
	return &DiagnosticService{
		probes:  probes,
		runRepo: runRepo,
		logger:  logger,
	}
}

// Execute performs one diagnostic run. The returned run is always
// populated; the error is the failing stage's own error, untouched, so
// callers can surface exactly what the backing service reported.
func (s *DiagnosticService) Execute(ctx context.Context, trigger domain.RunTrigger, notes string) (*domain.DiagnosticRun, error) {
	startedAt := time.Now().UTC()

	s.logger.Info("Starting diagnostic run",
		zap.String("trigger", string(trigger)),
		zap.Int("stages", len(s.probes)),
	)

	var stages []domain.StageResult
	var failedStage *domain.StageName
	var stageErr error

	for _, p := range s.probes {
		name := p.Name()
		stageStart := time.Now()
		msg, err := p.Run(ctx)
		elapsed := time.Since(stageStart)

		result := domain.StageResult{
			Name:       name,
			DurationMS: elapsed.Milliseconds(),
		}

		if err != nil {
			result.Status = domain.StageStatusFailed
			result.Error = err.Error()
			stages = append(stages, result)

			s.logger.Error("Stage failed",
				zap.String("stage", string(name)),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)

			n := name
			failedStage = &n
			stageErr = err
			break
		}

		result.Status = domain.StageStatusPassed
		result.Message = msg
		stages = append(stages, result)

		s.logger.Info("Stage passed",
			zap.String("stage", string(name)),
			zap.String("message", msg),
			zap.Duration("duration", elapsed),
		)
	}

	finishedAt := time.Now().UTC()

	run := &domain.DiagnosticRun{
		ID:          uuid.New(),
		Trigger:     trigger,
		Status:      domain.RunStatusSucceeded,
		Result:      domain.ResultSuccess,
		FailedStage: failedStage,
		Notes:       notes,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		DurationMS:  finishedAt.Sub(startedAt).Milliseconds(),
	}

	if stageErr != nil {
		run.Status = domain.RunStatusFailed
		run.Result = truncate(fmt.Sprintf("%s check failed: %v", *failedStage, stageErr), maxResultLen)
	}

	if err := run.SetStageResults(stages); err != nil {
		s.logger.Warn("Failed to serialize stage results", zap.Error(err))
	}

	s.record(ctx, run)

	if stageErr != nil {
		return run, stageErr
	}

	s.logger.Info("All checks passed",
		zap.String("trigger", string(trigger)),
		zap.Int64("durationMs", run.DurationMS),
	)

	return run, nil
}

// record persists the run. History is best effort and never changes
// the diagnostic outcome.
func (s *DiagnosticService) record(ctx context.Context, run *domain.DiagnosticRun) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Warn("Failed to record run history", zap.Error(err))
	}
}

// GetRun returns a single recorded run by id
func (s *DiagnosticService) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunDTO, error) {
	if s.runRepo == nil {
		return nil, ErrHistoryDisabled
	}

	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	dto := mapper.ToRunDTO(run)
	return &dto, nil
}

// ListRuns returns recorded runs, newest first, optionally filtered by status
func (s *DiagnosticService) ListRuns(ctx context.Context, limit, offset int, status string) (*domain.RunListResponse, error) {
	if s.runRepo == nil {
		return nil, ErrHistoryDisabled
	}

	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	runStatus := domain.RunStatus(status)
	if status != "" && !runStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	runs, total, err := s.runRepo.List(ctx, limit, offset, runStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return &domain.RunListResponse{
		Runs:   mapper.ToRunDTOs(runs),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// LatestRun returns the most recently started run
func (s *DiagnosticService) LatestRun(ctx context.Context) (*domain.RunDTO, error) {
	if s.runRepo == nil {
		return nil, ErrHistoryDisabled
	}

	run, err := s.runRepo.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	dto := mapper.ToRunDTO(run)
	return &dto, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
