package entities

import "time"

// SyncType names a bulk job; each type has one progress row per scope.
type SyncType string

// AllUsers scopes a bulk job to every account. The scheduler and the CLI
// run with it; API callers only ever get their own user id.
const AllUsers uint = 0

// SyncTypeEnrichment tracks the bulk catalog enrichment of stored books.
const SyncTypeEnrichment SyncType = "enrichment"

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is the last or current run of a bulk job. Counters are
// reset when a new run starts.
type SyncProgress struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	SyncType SyncType   `gorm:"size:50;uniqueIndex:idx_sync_scope" json:"sync_type"`
	UserID   uint       `gorm:"uniqueIndex:idx_sync_scope" json:"user_id"`
	Status   SyncStatus `gorm:"size:20" json:"status"`

	TotalItems  int    `json:"total_items"`
	Processed   int    `json:"processed"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	CurrentItem string `gorm:"size:512" json:"current_item,omitempty"`
	Error       string `gorm:"type:text" json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}

func (p *SyncProgress) Running() bool {
	return p.Status == SyncStatusRunning
}

// Stale reports a running job whose last update is older than after, which
// happens when the process died mid-run.
func (p *SyncProgress) Stale(now time.Time, after time.Duration) bool {
	return p.Running() && p.UpdatedAt.Before(now.Add(-after))
}

// Percent returns completion in 0..100. A finished run with nothing to do
// counts as complete.
func (p *SyncProgress) Percent() int {
	switch {
	case p.TotalItems > 0:
		return min(p.Processed*100/p.TotalItems, 100)
	case p.Status == SyncStatusCompleted:
		return 100
	default:
		return 0
	}
}
