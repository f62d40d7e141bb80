package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/straye-as/preflight/internal/domain"
)

// DiagnosticJobName is the name of the scheduled diagnostic run job
const DiagnosticJobName = "diagnostic_run"

// DiagnosticRunner defines the interface for executing a diagnostic run.
// This interface allows the job to call the service without importing the service package directly.
type DiagnosticRunner interface {
	// Execute runs the connectivity stages in order and records the outcome.
	// The returned run is populated even when a stage fails; err is the
	// failing stage's own error.
	Execute(ctx context.Context, trigger domain.RunTrigger, notes string) (*domain.DiagnosticRun, error)
}

// DiagnosticJob runs the connectivity checks on a schedule so run history
// tracks reachability over time, not just when someone asks.
type DiagnosticJob struct {
	runner  DiagnosticRunner
	logger  *zap.Logger
	timeout time.Duration
}

// NewDiagnosticJob creates a new scheduled diagnostic job.
// The timeout controls how long a single run is allowed to take.
func NewDiagnosticJob(runner DiagnosticRunner, logger *zap.Logger, timeout time.Duration) *DiagnosticJob {
	return &DiagnosticJob{
		runner:  runner,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one diagnostic run.
// This is called by the scheduler according to the cron expression.
func (j *DiagnosticJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting scheduled diagnostic run")

	run, err := j.runner.Execute(ctx, domain.TriggerScheduled, "")
	if err != nil {
		failedStage := ""
		if run.FailedStage != nil {
			failedStage = string(*run.FailedStage)
		}
		j.logger.Error("scheduled diagnostic run failed",
			zap.String("run_id", run.ID.String()),
			zap.String("failed_stage", failedStage),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("scheduled diagnostic run completed",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Duration("duration", time.Since(start)))
}

// RegisterDiagnosticJob registers the diagnostic run job with the scheduler.
// The cronExpr must be a valid cron expression with a seconds field
// (e.g., "0 */15 * * * *" for every 15 minutes).
func RegisterDiagnosticJob(scheduler *Scheduler, runner DiagnosticRunner, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewDiagnosticJob(runner, logger, timeout)
	return scheduler.AddJob(DiagnosticJobName, cronExpr, job.Run)
}
