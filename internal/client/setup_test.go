package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/ai"
	"github.com/mrlokans/mylibrary/internal/auth"
	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/database"
	"github.com/mrlokans/mylibrary/internal/database/aicache"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/database/settings"
	"github.com/mrlokans/mylibrary/internal/database/users"
	"github.com/mrlokans/mylibrary/internal/entities"
	http_controllers "github.com/mrlokans/mylibrary/internal/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer runs the real router on a fresh database with the offline
// AI generator and a canned catalog.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{
		JWTSecret:        "client-test-secret",
		TokenExpiry:      time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		LockoutDuration:  time.Minute,
	}
	issuer, err := auth.NewTokenIssuer(authCfg, auth.NewMemoryTokenRevoker())
	require.NoError(t, err)

	bookRepo := books.NewRepository(db.DB)
	cache := aicache.NewRepository(db.DB)
	generator := ai.NewStaticGenerator()

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Books:         bookRepo,
		Prefs:         settings.NewRepository(db.DB),
		AuthService:   auth.NewService(users.NewRepository(db.DB), issuer, authCfg),
		LoginLimiter:  auth.NewMemoryRateLimiter(auth.RateLimitConfig{}),
		Catalog:       &cannedCatalog{results: []entities.SearchResult{{Title: "Dune", Authors: "Frank Herbert", ISBN: "9782266320481"}}},
		Recommender:   ai.NewRecommender(generator, bookRepo, cache, ai.RecommenderConfig{}),
		Summarizer:    ai.NewSummarizer(generator, bookRepo, cache),
		ImagesBaseURL: "",
		Version:       "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *PrefsFile) {
	t.Helper()
	prefs, err := OpenPrefsFile(filepath.Join(t.TempDir(), DefaultPrefsFile))
	require.NoError(t, err)
	apiBase, imageBase := ServerURLs(srv.URL)
	return New(Config{BaseURL: apiBase, ImageBaseURL: imageBase, Tokens: prefs}), prefs
}

type cannedCatalog struct {
	results []entities.SearchResult
}

func (c *cannedCatalog) Name() string { return "canned" }

func (c *cannedCatalog) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	return c.results, nil
}

func (c *cannedCatalog) SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	for i := range c.results {
		if c.results[i].ISBN == isbn {
			return &c.results[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (c *cannedCatalog) SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error) {
	return nil, catalog.ErrNotFound
}

// countingSearcher answers every catalog query with one cover-bearing hit.
type countingSearcher struct {
	mu      sync.Mutex
	queries []string
}

func (s *countingSearcher) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return []entities.SearchResult{{ImageURL: "https://covers.example.com/" + query + ".jpg"}}, nil
}

func (s *countingSearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}
