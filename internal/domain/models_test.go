package domain_test

import (
	"testing"

	"github.com/straye-as/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticRun_StageResults(t *testing.T) {
	run := &domain.DiagnosticRun{}

	stages := []domain.StageResult{
		{Name: domain.StageStorage, Status: domain.StageStatusPassed, Message: "uploaded test-file.txt", DurationMS: 120},
		{Name: domain.StageDatabase, Status: domain.StageStatusFailed, Error: "connection refused", DurationMS: 45},
	}

	err := run.SetStageResults(stages)
	require.NoError(t, err)
	assert.Contains(t, run.Stages, `"storage"`)

	got, err := run.StageResults()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StageStorage, got[0].Name)
	assert.Equal(t, domain.StageStatusFailed, got[1].Status)
	assert.Equal(t, "connection refused", got[1].Error)
}

func TestDiagnosticRun_StageResultsEmpty(t *testing.T) {
	run := &domain.DiagnosticRun{}

	got, err := run.StageResults()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunTrigger_IsValid(t *testing.T) {
	assert.True(t, domain.TriggerManual.IsValid())
	assert.True(t, domain.TriggerAPI.IsValid())
	assert.True(t, domain.TriggerScheduled.IsValid())
	assert.False(t, domain.RunTrigger("cron").IsValid())
}

func TestRunStatus_IsValid(t *testing.T) {
	assert.True(t, domain.RunStatusSucceeded.IsValid())
	assert.True(t, domain.RunStatusFailed.IsValid())
	assert.False(t, domain.RunStatus("pending").IsValid())
}
