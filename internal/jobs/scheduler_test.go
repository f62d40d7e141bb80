package jobs_test

import (
	"testing"
	"time"

	"github.com/straye-as/preflight/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_GetJobNamesSorted(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("warehouse-sweep", "0 0 * * * *", func() {}))
	require.NoError(t, s.AddJob("connectivity", "0 */5 * * * *", func() {}))
	require.NoError(t, s.AddJob("history-prune", "0 30 * * * *", func() {}))

	assert.Equal(t, []string{"connectivity", "history-prune", "warehouse-sweep"}, s.GetJobNames())
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.AddJob("connectivity", "0 */5 * * * *", func() {}))

	require.NoError(t, s.RemoveJob("connectivity"))
	assert.Empty(t, s.GetJobNames())

	err := s.RemoveJob("connectivity")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	fired := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "* * * * * *", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire within the schedule window")
	}
}
