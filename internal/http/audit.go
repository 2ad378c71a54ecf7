package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/mylibrary/internal/database/audit"
	"github.com/mrlokans/mylibrary/internal/entities"
)

// AuditController exposes the caller's own activity trail.
type AuditController struct {
	events AuditReader
}

func NewAuditController(events AuditReader) *AuditController {
	return &AuditController{events: events}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	eventType, ok := entities.ParseAuditEventType(c.Query("type"))
	if !ok {
		respondError(c, http.StatusBadRequest, "unknown event type")
		return
	}

	page := parseQueryInt(c, "page", 1, 1, 1<<20)
	limit := parseQueryInt(c, "limit", 25, 1, 100)
	offset := (page - 1) * limit

	filter := auditRepo.Filter{
		UserID:    GetUserID(c),
		EventType: eventType,
	}
	events, total, err := ac.events.Events(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages,
	})
}
