package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_NoRoute(t *testing.T) {
	env := newTestEnv(t)
	w := doJSON(env.router(), http.MethodGet, "/api/nowhere", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", errorOf(t, w))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()

	w := doJSON(router, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t)
	router := env.router()
	doJSON(router, http.MethodGet, "/ping", "", nil)

	w := doJSON(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mylibrary_http_requests_total")
}

func TestRouter_BadgeImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "badges"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "badges", "badge_1.png"), []byte("png"), 0o644))

	env := newTestEnv(t)
	env.cfg.ImagesDir = dir
	w := doJSON(env.router(), http.MethodGet, "/images/badges/badge_1.png", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
}

func TestRouter_OptionalControllersAreNotMounted(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.TaskQueue = nil
	env.cfg.Prefs = nil
	router := env.router()
	_, token := env.user(t, "alice")

	for _, path := range []string{"/api/search?q=dune", "/api/tasks/types", "/api/preferences", "/api/audit"} {
		w := doJSON(router, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
