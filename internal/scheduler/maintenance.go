// Package scheduler runs the periodic maintenance jobs on cron schedules.
// Jobs only enqueue background tasks; the task workers do the actual work, so
// a slow job never blocks the cron loop.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

// Enqueuer stores tasks for the background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
}

// Job is one scheduled entry.
type Job struct {
	Name     string
	Schedule string
	Tasks    func() []backlite.Task
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// DefaultJobs maps the configured schedules to maintenance tasks. Empty
// schedules disable their job.
func DefaultJobs(cfg config.Scheduler, auditRetentionDays int) []Job {
	var jobs []Job
	if cfg.EnrichSchedule != "" {
		jobs = append(jobs, Job{
			Name:     "enrich_missing_metadata",
			Schedule: cfg.EnrichSchedule,
			Tasks: func() []backlite.Task {
				return []backlite.Task{tasks.EnrichAllBooksTask{UserID: entities.AllUsers, TriggeredBy: "scheduler"}}
			},
		})
	}
	if cfg.CleanupSchedule != "" {
		jobs = append(jobs, Job{
			Name:     "cleanup",
			Schedule: cfg.CleanupSchedule,
			Tasks: func() []backlite.Task {
				return []backlite.Task{
					tasks.CleanupAuditEventsTask{RetentionDays: auditRetentionDays},
					tasks.PurgeAICacheTask{},
				}
			},
		})
	}
	if cfg.RecommendSchedule != "" {
		jobs = append(jobs, Job{
			Name:     "warm_recommendations",
			Schedule: cfg.RecommendSchedule,
			Tasks: func() []backlite.Task {
				return []backlite.Task{tasks.WarmRecommendationsTask{}}
			},
		})
	}
	return jobs
}

// MaintenanceScheduler enqueues maintenance tasks on their schedules.
type MaintenanceScheduler struct {
	queue Enqueuer
	jobs  []Job

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

func NewMaintenanceScheduler(queue Enqueuer, jobs []Job) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.run(context.Background(), job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID

		next, _ := NextRunTime(job.Schedule, time.Now())
		logrus.WithFields(logrus.Fields{
			"job":      job.Name,
			"schedule": job.Schedule,
			"next_run": next.Format(time.RFC3339),
		}).Info("maintenance job scheduled")
	}

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	logrus.Info("maintenance scheduler stopped")
}

// RunNow enqueues the tasks of the named job immediately.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.run(ctx, job)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil if it is not scheduled.
func (s *MaintenanceScheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok || !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	// Next is filled in once the cron loop has picked the entry up
	if next.IsZero() {
		next = entry.Schedule.Next(time.Now())
	}
	return &next
}

func (s *MaintenanceScheduler) run(ctx context.Context, job Job) error {
	log := logrus.WithField("job", job.Name)
	ids, err := s.queue.Enqueue(ctx, job.Tasks()...)
	if err != nil {
		log.WithError(err).Error("failed to enqueue maintenance tasks")
		return err
	}
	log.WithField("task_ids", ids).Info("maintenance tasks enqueued")
	return nil
}
