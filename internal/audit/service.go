package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mrlokans/mylibrary/internal/database/audit"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			logger.For(context.Background()).WithError(err).
				WithField("action", event.Action).Warn("failed to log audit event")
		}
	}()
}

// Wait blocks until background writes have finished. Called on shutdown.
func (s *Service) Wait() {
	s.pending.Wait()
}

func withError(event *entities.AuditEvent, err error) *entities.AuditEvent {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogProfile records an account change.
func (s *Service) LogProfile(userID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventProfile,
		Action:      action,
		Description: description,
		EntityType:  entities.AuditEntityUser,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(userID uint, action, description string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		EntityType:  entities.AuditEntitySettings,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogBook records a change to a library entry, e.g. "book_create".
func (s *Service) LogBook(userID uint, action string, bookID int64, title string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBook,
		Action:      action,
		Description: truncate(title, 500),
		EntityType:  entities.AuditEntityBook,
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogMetadataEnrich records a metadata enrichment event.
func (s *Service) LogMetadataEnrich(userID uint, description string, bookID int64, fields []string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventMetadataEnrich,
		Action:      "book_enrich",
		Description: truncate(description, 500),
		EntityType:  entities.AuditEntityBook,
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	}

	if len(fields) > 0 {
		if md, e := json.Marshal(map[string]any{"fields_updated": fields}); e == nil {
			event.Metadata = string(md)
		}
	}

	s.LogAsync(withError(event, err))
}

// LogAI records a recommendation or summary generation.
func (s *Service) LogAI(userID uint, action, description string, err error) {
	s.LogAsync(withError(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAI,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}, err))
}

// Events retrieves a page of audit events, most recent first.
func (s *Service) Events(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.FindEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// DeleteForUser drops the trail of a closed account.
func (s *Service) DeleteForUser(userID uint) error {
	return s.repo.DeleteForUser(userID)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
