// Package sync provides database operations for bulk job progress tracking.
//
// # Usage
//
//	repo := sync.NewRepository(db, entities.SyncTypeEnrichment)
//	err := repo.StartSync(userID, len(books))
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// DefaultStaleAfter is how long a running job may go without an update
// before it is considered interrupted.
const DefaultStaleAfter = 10 * time.Minute

// Repository tracks the progress rows of one sync type, one per user scope.
type Repository struct {
	db         *gorm.DB
	syncType   entities.SyncType
	staleAfter time.Duration
}

func NewRepository(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType, staleAfter: DefaultStaleAfter}
}

func (r *Repository) scope(userID uint) *gorm.DB {
	return r.db.Model(&entities.SyncProgress{}).Where("sync_type = ? AND user_id = ?", r.syncType, userID)
}

// GetSyncProgress retrieves the progress row of userID, or nil when the job
// never ran for it.
func (r *Repository) GetSyncProgress(userID uint) (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.scope(userID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartSync creates or resets the progress row.
func (r *Repository) StartSync(userID uint, totalItems int) error {
	now := time.Now()
	progress := entities.SyncProgress{
		SyncType:   r.syncType,
		UserID:     userID,
		Status:     entities.SyncStatusRunning,
		TotalItems: totalItems,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := r.GetSyncProgress(userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(&progress).Error
	}

	progress.ID = existing.ID
	return r.db.Save(&progress).Error
}

func (r *Repository) UpdateProgress(userID uint, processed, succeeded, failed, skipped int, currentItem string) error {
	return r.scope(userID).
		Updates(map[string]any{
			"processed":    processed,
			"succeeded":    succeeded,
			"failed":       failed,
			"skipped":      skipped,
			"current_item": currentItem,
			"updated_at":   time.Now(),
		}).Error
}

func (r *Repository) CompleteSync(userID uint, succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	return r.scope(userID).
		Updates(map[string]any{
			"status":       status,
			"current_item": "",
			"error":        errorMsg,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// IsSyncRunning reports whether a job is in progress for userID. A running
// row that has not been touched for staleAfter is marked failed and reported
// as idle.
func (r *Repository) IsSyncRunning(userID uint) (bool, error) {
	progress, err := r.GetSyncProgress(userID)
	if err != nil || progress == nil {
		return false, err
	}
	if progress.Stale(time.Now(), r.staleAfter) {
		if err := r.CompleteSync(userID, false, "sync was interrupted"); err != nil {
			return false, err
		}
		return false, nil
	}
	return progress.Running(), nil
}
