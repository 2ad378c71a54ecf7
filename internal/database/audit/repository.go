package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mylibrary/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows an event listing. Zero fields match everything.
type Filter struct {
	UserID    uint
	EventType entities.AuditEventType
	Since     time.Time
}

func (f Filter) apply(query *gorm.DB) *gorm.DB {
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if !f.Since.IsZero() {
		query = query.Where("created_at > ?", f.Since)
	}
	return query
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// FindEvents returns a page of matching events, most recent first, and the
// total number of matches.
func (r *Repository) FindEvents(filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := filter.apply(r.db.Model(&entities.AuditEvent{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}

// DeleteForUser removes a user's trail when the account is closed.
func (r *Repository) DeleteForUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.AuditEvent{}).Error
}
