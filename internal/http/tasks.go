package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/mylibrary/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue TaskQueue
	books BookStore
}

// NewTasksController creates a new TasksController. books is used to check
// that a book targeted by enrich_book belongs to the caller.
func NewTasksController(queue TaskQueue, books BookStore) *TasksController {
	return &TasksController{queue: queue, books: books}
}

func (tc *TasksController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/tasks/types", tc.ListTaskTypes)
	group.GET("/tasks/:id", tc.GetTaskStatus)
	group.POST("/tasks/:id/run", tc.RunTask)
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// taskTypes are the tasks a user may trigger; both act on the caller's books.
var taskTypes = []TaskTypeInfo{
	{Type: tasks.QueueEnrichBook, Description: "Enrich a single book's metadata from the catalogs", Queue: tasks.QueueEnrichBook},
	{Type: tasks.QueueEnrichAllBooks, Description: "Enrich all your books missing metadata", Queue: tasks.QueueEnrichAllBooks},
}

// maintenanceTaskTypes span every account and only run from the scheduler.
var maintenanceTaskTypes = map[string]bool{
	tasks.QueueWarmRecommendations: true,
	tasks.QueueCleanupAuditEvents:  true,
	tasks.QueuePurgeAICache:        true,
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// BookID is required for enrich_book task
	BookID int64 `json:"book_id,omitempty"`
}

// RunTask handles POST /api/tasks/:id/run where :id is a task type.
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("id")
	userID := GetUserID(c)

	if maintenanceTaskTypes[taskType] {
		respondError(c, http.StatusForbidden, fmt.Sprintf("%s runs on the maintenance schedule", taskType))
		return
	}

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case tasks.QueueEnrichBook:
		if req.BookID <= 0 {
			respondBadRequest(c, "book_id is required for enrich_book task")
			return
		}
		if _, err := tc.books.GetForUser(userID, req.BookID); err != nil {
			respondBookError(c, err, "run task")
			return
		}
		task = tasks.EnrichBookTask{BookID: req.BookID, UserID: userID}
	case tasks.QueueEnrichAllBooks:
		task = tasks.EnrichAllBooksTask{UserID: userID, TriggeredBy: fmt.Sprintf("user:%d", userID)}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	respondAccepted(c, gin.H{
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
