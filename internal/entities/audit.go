package entities

import "time"

// AuditEventType groups audit events for filtering.
type AuditEventType string

const (
	AuditEventAuth           AuditEventType = "auth"
	AuditEventProfile        AuditEventType = "profile"
	AuditEventBook           AuditEventType = "book"
	AuditEventMetadataEnrich AuditEventType = "metadata_enrich"
	AuditEventSettings       AuditEventType = "settings"
	AuditEventAI             AuditEventType = "ai"
)

var AuditEventTypes = []AuditEventType{
	AuditEventAuth, AuditEventProfile, AuditEventBook,
	AuditEventMetadataEnrich, AuditEventSettings, AuditEventAI,
}

// ParseAuditEventType accepts an empty string as "all types".
func ParseAuditEventType(raw string) (AuditEventType, bool) {
	if raw == "" {
		return "", true
	}
	for _, t := range AuditEventTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Kinds of entity an audit event points at.
const (
	AuditEntityUser     = "user"
	AuditEntityBook     = "book"
	AuditEntitySettings = "settings"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one line of a user's activity log. Metadata holds a JSON
// object with action specific details.
type AuditEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	EventType AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action    string         `gorm:"size:100" json:"action"`
	Status    AuditStatus    `gorm:"size:20" json:"status"`

	Description string `gorm:"size:500" json:"description"`
	EntityType  string `gorm:"size:50" json:"entity_type"`
	EntityID    *int64 `gorm:"index" json:"entity_id,omitempty"`
	Metadata    string `gorm:"type:text" json:"metadata,omitempty"`
	ErrorMsg    string `gorm:"size:500" json:"error_msg,omitempty"`

	IPAddress string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string    `gorm:"size:500" json:"user_agent,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
