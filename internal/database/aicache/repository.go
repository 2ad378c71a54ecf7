// Package aicache stores generated recommendations and summaries so repeated
// requests do not hit the language model.
package aicache

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mylibrary/internal/entities"
)

var ErrCacheMiss = errors.New("cache miss")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetRecommendations returns the user's cached list if it has not expired at now.
func (r *Repository) GetRecommendations(userID uint, now time.Time) (*entities.RecommendationCache, error) {
	var entry entities.RecommendationCache
	err := r.db.Where("user_id = ? AND expires_at > ?", userID, now).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) SaveRecommendations(entry *entities.RecommendationCache) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "generated_at", "expires_at"}),
	}).Create(entry).Error
}

func (r *Repository) DeleteRecommendations(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.RecommendationCache{}).Error
}

func (r *Repository) GetSummary(userID uint, bookID int64) (*entities.SummaryCache, error) {
	var entry entities.SummaryCache
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) SaveSummary(entry *entities.SummaryCache) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary", "isbn", "user_id"}),
	}).Create(entry).Error
}

// DeleteSummary drops the cached summary of a book, e.g. after it is deleted.
func (r *Repository) DeleteSummary(bookID int64) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.SummaryCache{}).Error
}

// PurgeExpired removes recommendation lists that expired before now and
// summaries older than summaryMaxAge. Returns the number of rows deleted.
func (r *Repository) PurgeExpired(now time.Time, summaryMaxAge time.Duration) (int64, error) {
	recs := r.db.Where("expires_at <= ?", now).Delete(&entities.RecommendationCache{})
	if recs.Error != nil {
		return 0, recs.Error
	}
	deleted := recs.RowsAffected

	if summaryMaxAge > 0 {
		sums := r.db.Where("created_at < ?", now.Add(-summaryMaxAge)).Delete(&entities.SummaryCache{})
		if sums.Error != nil {
			return deleted, sums.Error
		}
		deleted += sums.RowsAffected
	}
	return deleted, nil
}
