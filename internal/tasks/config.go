package tasks

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"
)

// Queue names, also used as the task type accepted by the API.
const (
	QueueEnrichBook          = "enrich_book"
	QueueEnrichAllBooks      = "enrich_all_books"
	QueueWarmRecommendations = "warm_recommendations"
	QueueCleanupAuditEvents  = "cleanup_audit_events"
	QueuePurgeAICache        = "purge_ai_cache"
)

// Config sizes the worker pool. Zero fields take the DefaultConfig value.
type Config struct {
	Workers         int
	ReleaseAfter    time.Duration // claimed tasks older than this go back to the queue
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	return c
}

// TasksDBPath puts the queue next to the library database:
// data/library.db gives data/library-tasks.db.
func TasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// queueSetting is the static part of a queue's backlite configuration.
type queueSetting struct {
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

// Bulk queues run once; a failed pass is picked up by the next schedule.
var queueSettings = map[string]queueSetting{
	QueueEnrichBook:          {attempts: 3, backoff: 30 * time.Second, timeout: 2 * time.Minute},
	QueueEnrichAllBooks:      {attempts: 1, backoff: time.Minute, timeout: time.Hour},
	QueueWarmRecommendations: {attempts: 1, backoff: time.Minute, timeout: 30 * time.Minute},
	QueueCleanupAuditEvents:  {attempts: 3, backoff: 5 * time.Minute, timeout: 2 * time.Minute},
	QueuePurgeAICache:        {attempts: 3, backoff: 5 * time.Minute, timeout: 2 * time.Minute},
}

// queueConfig builds the backlite config of a named queue. Task rows are kept
// for a day; payloads only when the task failed.
func queueConfig(name string) backlite.QueueConfig {
	s := queueSettings[name]
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: s.attempts,
		Backoff:     s.backoff,
		Timeout:     s.timeout,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// daysOr converts a day count into a duration, using def for non-positive input.
func daysOr(days, def int) (int, time.Duration) {
	if days <= 0 {
		days = def
	}
	return days, time.Duration(days) * 24 * time.Hour
}
