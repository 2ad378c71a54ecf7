package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *recordingQueue) Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, tasks...)
	ids := make([]string, len(tasks))
	for i := range ids {
		ids[i] = "id"
	}
	return ids, nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * 1-5"))
	assert.Error(t, ValidateCronSchedule("0 3 * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	next, err := NextRunTime("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), next)
}

func TestDefaultJobs(t *testing.T) {
	jobs := DefaultJobs(config.Scheduler{
		EnrichSchedule:    "0 3 * * *",
		CleanupSchedule:   "30 4 * * *",
		RecommendSchedule: "",
	}, 14)

	require.Len(t, jobs, 2)
	assert.Equal(t, "enrich_missing_metadata", jobs[0].Name)
	assert.Equal(t, "cleanup", jobs[1].Name)

	cleanup := jobs[1].Tasks()
	require.Len(t, cleanup, 2)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 14}, cleanup[0])
	assert.IsType(t, tasks.PurgeAICacheTask{}, cleanup[1])
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	queue := &recordingQueue{}
	s := NewMaintenanceScheduler(queue, DefaultJobs(config.Scheduler{RecommendSchedule: "0 5 * * *"}, 30))

	require.NoError(t, s.RunNow(context.Background(), "warm_recommendations"))
	require.Len(t, queue.tasks, 1)
	assert.IsType(t, tasks.WarmRecommendationsTask{}, queue.tasks[0])

	assert.Error(t, s.RunNow(context.Background(), "nope"))

	queue.err = errors.New("queue closed")
	assert.Error(t, s.RunNow(context.Background(), "warm_recommendations"))
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, []Job{{
		Name:     "hourly",
		Schedule: "0 * * * *",
		Tasks:    func() []backlite.Task { return nil },
	}})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "second start is a no-op")

	next := s.NextRun("hourly")
	require.NotNil(t, next)
	assert.Zero(t, next.Minute())
	assert.Nil(t, s.NextRun("unknown"))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
	assert.Nil(t, s.NextRun("hourly"))
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&recordingQueue{}, []Job{{Name: "broken", Schedule: "not cron"}})
	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}
