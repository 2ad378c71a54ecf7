package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
)

func TestClient_NotLoggedInMakesNoRequest(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	_, err := c.Books(context.Background(), BookFilter{})

	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, "Non connecté", err.Error())
	assert.Zero(t, hits)
}

func TestClient_RejectedTokenIsCleared(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(status)
		}))

		tokens := &MemoryTokenStore{}
		require.NoError(t, tokens.SaveToken("stale"))
		c := New(Config{BaseURL: srv.URL, Tokens: tokens})

		_, err := c.Stats(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.False(t, c.IsLoggedIn())
		srv.Close()
	}
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server message", http.StatusBadRequest, `{"error":"titre is required"}`, "titre is required"},
		{"no body", http.StatusInternalServerError, "", "Erreur 500"},
		{"not json", http.StatusBadGateway, "<html>bad gateway</html>", "Erreur 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tokens := &MemoryTokenStore{}
			require.NoError(t, tokens.SaveToken("tok"))
			c := New(Config{BaseURL: srv.URL, Tokens: tokens})

			_, err := c.AddBook(context.Background(), entities.Book{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
			assert.True(t, c.IsLoggedIn(), "other errors keep the token")
		})
	}
}

func TestClient_FailedLoginKeepsAPIError(t *testing.T) {
	srv := newTestServer(t)
	c, _ := newTestClient(t, srv)

	_, err := c.Login(context.Background(), "nobody", "password123")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, c.IsLoggedIn())
}

func TestClient_Session(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c, prefs := newTestClient(t, srv)

	res, err := c.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, res.Token, prefs.Token(), "token is persisted")

	reopened, err := OpenPrefsFile(prefs.Path())
	require.NoError(t, err)
	assert.Equal(t, res.Token, reopened.Token())

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	newName := "alice2"
	updated, err := c.UpdateProfile(ctx, &newName, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	_, err = c.ChangePassword(ctx, "wrong-password", "password456")
	assert.Error(t, err)
	msg, err := c.ChangePassword(ctx, "password123", "password456")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	oldToken := prefs.Token()
	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsLoggedIn())

	require.NoError(t, prefs.SaveToken(oldToken))
	_, err = c.Profile(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized, "revoked tokens are rejected")

	_, err = c.Login(ctx, "alice@example.com", "password456")
	require.NoError(t, err)
	_, err = c.DeleteAccount(ctx, "password456")
	require.NoError(t, err)
	assert.False(t, c.IsLoggedIn())
}

func TestClient_Books(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c, _ := newTestClient(t, srv)
	_, err := c.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	dune, err := c.AddBook(ctx, entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9782266320481",
		ImageURL: "https://covers.example.com/dune.jpg", Categories: []string{"SF"}})
	require.NoError(t, err)
	assert.NotZero(t, dune.ID)
	assert.Equal(t, entities.StatusToRead, dune.Status)

	_, err = c.AddBook(ctx, entities.Book{Title: "Ubik", Author: "Philip K. Dick", Status: entities.StatusReading})
	require.NoError(t, err)

	_, err = c.AddBook(ctx, entities.Book{Author: "Nobody"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "titre is required", apiErr.Message)

	all, err := c.Books(ctx, BookFilter{Sort: library.SortTitle})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Dune", all[0].Title)

	reading, err := c.Books(ctx, BookFilter{Status: string(entities.StatusReading)})
	require.NoError(t, err)
	require.Len(t, reading, 1)
	assert.Equal(t, "Ubik", reading[0].Title)

	read, err := c.UpdateBookStatus(ctx, dune.ID, entities.StatusRead)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusRead, read.Status)

	read.Memo = "Relire"
	replaced, err := c.UpdateBook(ctx, *read)
	require.NoError(t, err)
	assert.Equal(t, "Relire", replaced.Memo)

	got, err := c.Book(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Relire", got.Memo)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SF"}, categories)

	s, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Read)

	badges, err := c.Badges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, badges.TotalBooksRead)
	assert.Equal(t, srv.URL+"/images/badges/badge_1.png", badges.Badges[0].ImageURL)

	msg, err := c.DeleteBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Livre supprimé", msg)
	_, err = c.Book(ctx, dune.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_SearchAISummaryAndPreferences(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c, _ := newTestClient(t, srv)
	_, err := c.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	results, err := c.SearchCatalog(ctx, "dune", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	hit, err := c.SearchISBN(ctx, "978-2-266-32048-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", hit.Title)

	book, err := c.AddBook(ctx, entities.Book{Title: "Dune", Author: "Frank Herbert", Status: entities.StatusRead})
	require.NoError(t, err)

	recs, err := c.Recommendations(ctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, recs.Recommendations)

	summary, err := c.Summary(ctx, book.ID)
	require.NoError(t, err)
	assert.Contains(t, summary.Summary, "Dune")

	prefs, err := c.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultPreferences(), *prefs)

	saved, err := c.SavePreferences(ctx, entities.Preferences{Theme: entities.ThemePink, ProfilePicture: "pp_chat"})
	require.NoError(t, err)
	assert.Equal(t, entities.ThemePink, saved.Theme)
}
