package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/auth"
	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/database"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/database/settings"
	"github.com/mrlokans/mylibrary/internal/database/users"
	"github.com/mrlokans/mylibrary/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db      *database.Database
	books   *books.Repository
	auth    *auth.Service
	auditor *recordingAuditor
	queue   *fakeQueue
	cfg     RouterConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{
		JWTSecret:        "test-secret",
		TokenExpiry:      time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		LockoutDuration:  time.Minute,
	}
	issuer, err := auth.NewTokenIssuer(authCfg, auth.NewMemoryTokenRevoker())
	require.NoError(t, err)
	authService := auth.NewService(users.NewRepository(db.DB), issuer, authCfg)

	env := &testEnv{
		db:      db,
		books:   books.NewRepository(db.DB),
		auth:    authService,
		auditor: &recordingAuditor{},
		queue:   &fakeQueue{},
	}
	env.cfg = RouterConfig{
		Database:    db,
		Books:       env.books,
		Prefs:       settings.NewRepository(db.DB),
		Auditor:     env.auditor,
		AuthService: authService,
		TaskQueue:   env.queue,
		Version:     "test",
	}
	return env
}

func (e *testEnv) router() *gin.Engine {
	return NewRouter(e.cfg)
}

// user registers an account and returns its id and token.
func (e *testEnv) user(t *testing.T, name string) (uint, string) {
	t.Helper()
	res, err := e.auth.Register(name, name+"@example.com", "password123")
	require.NoError(t, err)
	return res.User.ID, res.Token
}

func (e *testEnv) addBook(t *testing.T, userID uint, book entities.Book) entities.Book {
	t.Helper()
	book.UserID = userID
	require.NoError(t, e.books.Create(&book))
	return book
}

func doJSON(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Error
}

func intPtr(v int) *int { return &v }

// --- fakes ---

type auditCall struct {
	Kind   string
	UserID uint
	Action string
	Err    error
}

type recordingAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAuditor) record(call auditCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.calls))
	for i, c := range a.calls {
		out[i] = c.Action
	}
	return out
}

func (a *recordingAuditor) LogBook(userID uint, action string, bookID int64, title string) {
	a.record(auditCall{Kind: "book", UserID: userID, Action: action})
}

func (a *recordingAuditor) LogSettings(userID uint, action, description string) {
	a.record(auditCall{Kind: "settings", UserID: userID, Action: action})
}

func (a *recordingAuditor) LogMetadataEnrich(userID uint, description string, bookID int64, fields []string, err error) {
	a.record(auditCall{Kind: "enrich", UserID: userID, Action: "book_enrich", Err: err})
}

func (a *recordingAuditor) LogAI(userID uint, action, description string, err error) {
	a.record(auditCall{Kind: "ai", UserID: userID, Action: action, Err: err})
}

type fakeQueue struct {
	mu       sync.Mutex
	tasks    []backlite.Task
	statuses map[string]backlite.TaskStatus
	err      error
}

func (q *fakeQueue) Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	ids := make([]string, len(tasks))
	for i := range tasks {
		q.tasks = append(q.tasks, tasks[i])
		ids[i] = fmt.Sprintf("task-%d", len(q.tasks))
	}
	return ids, nil
}

func (q *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	if status, ok := q.statuses[taskID]; ok {
		return status, nil
	}
	return backlite.TaskStatusNotFound, nil
}

func (q *fakeQueue) Ping(ctx context.Context) error { return q.err }

type fakeCatalog struct {
	mu      sync.Mutex
	results []entities.SearchResult
	err     error
	queries []string
}

func (f *fakeCatalog) Name() string { return "fake" }

func (f *fakeCatalog) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func (f *fakeCatalog) SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, catalog.ISBNQuery(isbn))
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.results {
		if f.results[i].ISBN == isbn {
			return &f.results[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, catalog.TitleQuery(title, author))
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, catalog.ErrNotFound
	}
	return &f.results[0], nil
}

var errBoom = errors.New("boom")
