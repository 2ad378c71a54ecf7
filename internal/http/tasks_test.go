package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

func TestTasksController_ListTaskTypes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "alice")

	w := doJSON(env.router(), http.MethodGet, "/api/tasks/types", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string][]TaskTypeInfo](t, w)
	require.Len(t, resp["task_types"], 2)
	assert.Equal(t, "enrich_book", resp["task_types"][0].Type)
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	env := newTestEnv(t)
	env.queue.statuses = map[string]backlite.TaskStatus{"task-7": backlite.TaskStatusRunning}
	router := env.router()
	_, token := env.user(t, "alice")

	w := doJSON(router, http.MethodGet, "/api/tasks/task-7", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"id": "task-7", "status": "running"}, decode[map[string]string](t, w))

	w = doJSON(router, http.MethodGet, "/api/tasks/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "task not found", errorOf(t, w))
}

func TestTasksController_RunTask(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()
	userID, token := env.user(t, "alice")
	book := env.addBook(t, userID, entities.Book{Title: "Dune", Author: "Frank Herbert"})

	tests := []struct {
		taskType string
		body     any
		want     backlite.Task
	}{
		{"enrich_book", map[string]any{"book_id": book.ID}, tasks.EnrichBookTask{BookID: book.ID, UserID: userID}},
		{"enrich_all_books", nil, tasks.EnrichAllBooksTask{UserID: userID, TriggeredBy: fmt.Sprintf("user:%d", userID)}},
	}
	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			env.queue.tasks = nil
			w := doJSON(router, http.MethodPost, "/api/tasks/"+tt.taskType+"/run", token, tt.body)
			require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

			resp := decode[map[string]string](t, w)
			assert.Equal(t, "task-1", resp["task_id"])
			assert.Equal(t, tt.taskType, resp["type"])
			require.Len(t, env.queue.tasks, 1)
			assert.Equal(t, tt.want, env.queue.tasks[0])
		})
	}
}

func TestTasksController_RunTaskErrors(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()
	_, token := env.user(t, "alice")
	bobID, _ := env.user(t, "bob")
	theirs := env.addBook(t, bobID, entities.Book{Title: "Secret", Author: "Bob"})

	w := doJSON(router, http.MethodPost, "/api/tasks/reindex/run", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown task type: reindex", errorOf(t, w))

	w = doJSON(router, http.MethodPost, "/api/tasks/enrich_book/run", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/tasks/enrich_book/run", token, map[string]any{"book_id": theirs.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.queue.err = errBoom
	w = doJSON(router, http.MethodPost, "/api/tasks/enrich_all_books/run", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, env.queue.tasks)
}

func TestTaskStatusToString(t *testing.T) {
	tests := []struct {
		status backlite.TaskStatus
		want   string
	}{
		{backlite.TaskStatusPending, "pending"},
		{backlite.TaskStatusRunning, "running"},
		{backlite.TaskStatusSuccess, "success"},
		{backlite.TaskStatusFailure, "failure"},
		{backlite.TaskStatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		if got := taskStatusToString(tt.status); got != tt.want {
			t.Errorf("taskStatusToString(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTasksController_MaintenanceTasksAreScheduledOnly(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()
	_, token := env.user(t, "alice")

	for _, taskType := range []string{"warm_recommendations", "cleanup_audit_events", "purge_ai_cache"} {
		t.Run(taskType, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/tasks/"+taskType+"/run", token, nil)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Empty(t, env.queue.tasks)
		})
	}
}
