package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

const enrichTimeout = 30 * time.Second

// MetadataController handles book metadata enrichment endpoints.
type MetadataController struct {
	books        BookStore
	enricher     BookEnricher
	syncProgress SyncStatusReader
	queue        TaskQueue
	auditor      Auditor
}

// NewMetadataController creates a new MetadataController. syncProgress and
// queue are optional; without a queue bulk enrichment is unavailable.
func NewMetadataController(books BookStore, enricher BookEnricher, syncProgress SyncStatusReader, queue TaskQueue, auditor Auditor) *MetadataController {
	return &MetadataController{
		books:        books,
		enricher:     enricher,
		syncProgress: syncProgress,
		queue:        queue,
		auditor:      auditorOrNop(auditor),
	}
}

func (mc *MetadataController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/livres/:id/enrich", mc.EnrichBook)
	group.POST("/livres/enrich-all", mc.EnrichAllMissing)
	group.GET("/livres/enrich-all/status", mc.GetSyncStatus)
}

// EnrichBook handles POST /api/livres/:id/enrich. The lookup runs inline and
// the response carries the refreshed book.
func (mc *MetadataController) EnrichBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)
	if _, err := mc.books.GetForUser(userID, id); err != nil {
		respondBookError(c, err, "enrich book")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enrichTimeout)
	defer cancel()

	result, err := mc.enricher.EnrichBook(ctx, id)
	if err != nil {
		mc.auditor.LogMetadataEnrich(userID, "Enrichment failed", id, nil, err)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			respondNotFound(c, "catalog match")
		case errors.Is(err, catalog.ErrNoConnection), errors.Is(err, catalog.ErrTimeout):
			respondError(c, http.StatusBadGateway, "catalog unavailable")
		default:
			respondInternalError(c, err, "enrich book")
		}
		return
	}

	mc.auditor.LogMetadataEnrich(userID,
		fmt.Sprintf("Enriched %s from %s", result.Book.Title, result.Source),
		id, result.FieldsUpdated, nil)
	if result.FieldsUpdated == nil {
		result.FieldsUpdated = []string{}
	}
	c.JSON(http.StatusOK, result)
}

// EnrichAllMissing handles POST /api/livres/enrich-all. It enqueues the bulk
// job over the caller's books and returns immediately.
func (mc *MetadataController) EnrichAllMissing(c *gin.Context) {
	if mc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is not enabled")
		return
	}

	userID := GetUserID(c)
	if mc.syncProgress != nil {
		if running, err := mc.syncProgress.IsSyncRunning(userID); err == nil && running {
			respondError(c, http.StatusConflict, catalog.ErrSyncInProgress.Error())
			return
		}
	}

	task := tasks.EnrichAllBooksTask{UserID: userID, TriggeredBy: fmt.Sprintf("user:%d", userID)}
	ids, err := mc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue bulk enrichment")
		return
	}
	logger.For(c.Request.Context()).WithField("task_id", ids[0]).Info("bulk enrichment enqueued")

	respondAccepted(c, gin.H{
		"task_id": ids[0],
		"message": "metadata sync started",
	})
}

// SyncStatusResponse represents the metadata sync status.
type SyncStatusResponse struct {
	Running     bool       `json:"running"`
	Status      string     `json:"status,omitempty"`
	TotalItems  int        `json:"total_items"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Skipped     int        `json:"skipped"`
	CurrentItem string     `json:"current_item,omitempty"`
	Progress    int        `json:"progress"` // 0-100 percentage
	Error       string     `json:"error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetSyncStatus handles GET /api/livres/enrich-all/status. Only the caller's
// own run is reported.
func (mc *MetadataController) GetSyncStatus(c *gin.Context) {
	resp := SyncStatusResponse{}
	if mc.syncProgress == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	progress, err := mc.syncProgress.GetSyncProgress(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}
	if progress != nil {
		resp = SyncStatusResponse{
			Running:     progress.Running(),
			Status:      string(progress.Status),
			TotalItems:  progress.TotalItems,
			Processed:   progress.Processed,
			Succeeded:   progress.Succeeded,
			Failed:      progress.Failed,
			Skipped:     progress.Skipped,
			CurrentItem: progress.CurrentItem,
			Progress:    progress.Percent(),
			Error:       progress.Error,
			CompletedAt: progress.CompletedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}
