package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/mylibrary/internal/catalog"
	auditRepo "github.com/mrlokans/mylibrary/internal/database/audit"
	"github.com/mrlokans/mylibrary/internal/entities"
)

// BookStore provides per-user access to library entries.
type BookStore interface {
	ListForUser(userID uint) ([]entities.Book, error)
	GetForUser(userID uint, id int64) (*entities.Book, error)
	Create(book *entities.Book) error
	Update(book *entities.Book) error
	UpdateFields(userID uint, id int64, updates map[string]any) (*entities.Book, error)
	Delete(userID uint, id int64) error
}

// PreferencesStore persists the theme and profile picture of a user.
type PreferencesStore interface {
	GetPreferences(userID uint) (entities.Preferences, error)
	SavePreferences(userID uint, prefs entities.Preferences) error
}

type BookEnricher interface {
	EnrichBook(ctx context.Context, bookID int64) (*catalog.EnrichmentResult, error)
}

// SyncStatusReader reports the progress of a user's bulk enrichment job.
type SyncStatusReader interface {
	GetSyncProgress(userID uint) (*entities.SyncProgress, error)
	IsSyncRunning(userID uint) (bool, error)
}

// TaskQueue is the part of the task client the controllers use.
type TaskQueue interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

type RecommendationSource interface {
	Recommendations(ctx context.Context, userID uint, refresh bool) (*entities.RecommendationsResponse, error)
}

type SummarySource interface {
	Summary(ctx context.Context, userID uint, bookID int64) (*entities.BookSummary, error)
}

type CoverSource interface {
	GetCover(ctx context.Context, bookID int64, coverURL string) (string, error)
}

// Auditor records user-visible changes. Calls must not block the request.
type Auditor interface {
	LogBook(userID uint, action string, bookID int64, title string)
	LogSettings(userID uint, action, description string)
	LogMetadataEnrich(userID uint, description string, bookID int64, fields []string, err error)
	LogAI(userID uint, action, description string, err error)
}

type AuditReader interface {
	Events(filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type nopAuditor struct{}

func (nopAuditor) LogBook(uint, string, int64, string) {}
func (nopAuditor) LogSettings(uint, string, string) {}
func (nopAuditor) LogMetadataEnrich(uint, string, int64, []string, error) {}
func (nopAuditor) LogAI(uint, string, string, error) {}

func auditorOrNop(a Auditor) Auditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}
