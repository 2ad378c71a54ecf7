package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/client"
	"github.com/mrlokans/mylibrary/internal/entities"
)

func TestAddBookCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"title and author", []string{"-title", "Dune", "-author", "Frank Herbert"}, ""},
		{"lookup", []string{"-isbn", "9782266320481", "-lookup"}, ""},
		{"missing author", []string{"-title", "Dune"}, "title and author are required"},
		{"lookup without isbn", []string{"-lookup"}, "-lookup needs -isbn"},
		{"bad status", []string{"-title", "Dune", "-author", "F", "-status", "fini"}, "invalid status"},
		{"note too high", []string{"-title", "Dune", "-author", "F", "-note", "6"}, "note must be between 0 and 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAddBookCommand().ParseFlags(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddBookCommand_FlagsOverrideCatalog(t *testing.T) {
	cmd := NewAddBookCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-isbn", "9782266320481", "-lookup", "-status", "lu", "-note", "0", "-categories", "SF, Classique,"}))

	book := entities.Book{Title: "Dune", Author: "Frank Herbert", Categories: []string{"Fiction"}}
	cmd.apply(&book)

	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, entities.StatusRead, book.Status)
	require.NotNil(t, book.Note)
	assert.Equal(t, 0, *book.Note)
	assert.Equal(t, []string{"SF", "Classique"}, book.Categories)
}

func TestUpdateBookCommand_PatchOnlySetFlags(t *testing.T) {
	cmd := NewUpdateBookCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-id", "4", "-status", "en cours", "-memo", ""}))

	p := cmd.patch()
	require.NotNil(t, p.Status)
	assert.Equal(t, entities.StatusReading, *p.Status)
	require.NotNil(t, p.Memo)
	assert.Equal(t, "", *p.Memo)
	assert.Nil(t, p.Note)
	assert.Nil(t, p.DateLecture)

	err := NewUpdateBookCommand().ParseFlags([]string{"-id", "4"})
	assert.EqualError(t, err, "nothing to update")
}

func TestSearchCommand_ParseFlags(t *testing.T) {
	assert.NoError(t, NewSearchCommand().ParseFlags([]string{"-q", "dune"}))
	assert.NoError(t, NewSearchCommand().ParseFlags([]string{"-isbn", "9782266320481"}))
	assert.Error(t, NewSearchCommand().ParseFlags([]string{}))
	assert.Error(t, NewSearchCommand().ParseFlags([]string{"-q", "dune", "-isbn", "1"}))
	assert.EqualError(t, NewSearchCommand().ParseFlags([]string{"-q", "d"}), "query must be at least 2 characters")
}

func TestPrefsCommand_ParseFlags(t *testing.T) {
	assert.NoError(t, NewPrefsCommand().ParseFlags([]string{"-theme", "3", "-picture", "pp_chat"}))
	assert.EqualError(t, NewPrefsCommand().ParseFlags([]string{"-theme", "4"}), "invalid theme 4")
	assert.EqualError(t, NewPrefsCommand().ParseFlags([]string{"-picture", "pp_chien"}), `invalid profile picture "pp_chien"`)
}

func TestDeleteAccountCommand_RequiresConfirm(t *testing.T) {
	err := NewDeleteAccountCommand().ParseFlags([]string{"-password", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-confirm is required")
}

func TestReadPassword(t *testing.T) {
	t.Setenv(EnvPassword, "")
	var prompt bytes.Buffer

	got, err := readPassword("flag", strings.NewReader("typed\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "flag", got)
	assert.Empty(t, prompt.String())

	got, err = readPassword("", strings.NewReader("typed\r\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "typed", got)
	assert.Equal(t, "Mot de passe: ", prompt.String())

	_, err = readPassword("", strings.NewReader(""), &prompt)
	assert.EqualError(t, err, "password is required")

	t.Setenv(EnvPassword, "from-env")
	got, err = readPassword("", strings.NewReader(""), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

// loggedIn writes a preference file holding a token and returns its path.
func loggedIn(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	prefs, err := client.OpenPrefsFile(path)
	require.NoError(t, err)
	require.NoError(t, prefs.SaveToken("token-1"))
	return path
}

func TestBooksCommand_Run(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/livres", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		gotQuery = r.URL.RawQuery
		note := 4
		_ = json.NewEncoder(w).Encode([]entities.Book{
			{ID: 1, Title: "Dune", Author: "Frank Herbert", Status: entities.StatusRead, Note: &note},
			{ID: 2, Title: "Fondation", Author: "Isaac Asimov", Status: entities.StatusToRead},
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewBooksCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-server", srv.URL, "-prefs", loggedIn(t), "-sort", "note", "-q", "a"}))
	cmd.out = &out
	require.NoError(t, cmd.Run())

	assert.Equal(t, "q=a&sort=note", gotQuery)
	assert.Contains(t, out.String(), "Dune — Frank Herbert")
	assert.Contains(t, out.String(), "4/5")
	assert.Contains(t, out.String(), "2 livres")
}

func TestStatsCommand_NotLoggedIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	cmd := NewStatsCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-server", srv.URL, "-prefs", filepath.Join(t.TempDir(), "prefs.yaml")}))
	cmd.out = &bytes.Buffer{}
	assert.ErrorIs(t, cmd.Run(), client.ErrNotLoggedIn)
}

func TestPrefsCommand_SavesLocally(t *testing.T) {
	var saved entities.Preferences
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(entities.DefaultPreferences())
		case http.MethodPut:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			_ = json.NewEncoder(w).Encode(saved)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	path := loggedIn(t)
	var out bytes.Buffer
	cmd := NewPrefsCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-server", srv.URL, "-prefs", path, "-theme", "3"}))
	cmd.out = &out
	require.NoError(t, cmd.Run())

	assert.Equal(t, entities.ThemeDark, saved.Theme)
	assert.Contains(t, out.String(), "Thème: Sombre")

	local, err := client.OpenPrefsFile(path)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeDark, local.Preferences().Theme)
	assert.Equal(t, "token-1", local.Token())
}

func TestPrintHome(t *testing.T) {
	var out bytes.Buffer
	printHome(&out, &client.Home{})
	assert.Contains(t, out.String(), "Lisez un premier livre")

	out.Reset()
	printHome(&out, &client.Home{
		Reading:   []entities.Book{{ID: 3, Title: "Dune", Author: "Frank Herbert", Status: entities.StatusReading}},
		ReadCount: 1,
		Recommendations: []entities.Book{
			{ID: -1, Title: "L'Étranger", Author: "Albert Camus", Memo: "Un classique"},
		},
	})
	assert.Contains(t, out.String(), "En cours")
	assert.NotContains(t, out.String(), "À lire")
	assert.Contains(t, out.String(), "L'Étranger — Albert Camus")
	assert.Contains(t, out.String(), "Un classique")
}

func TestPrintProgress(t *testing.T) {
	var out bytes.Buffer
	printProgress(&out, 50)
	assert.Equal(t, "[##########..........] 50%\n", out.String())
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0 livre", formatCount(0, "livre", "livres"))
	assert.Equal(t, "1 livre", formatCount(1, "livre", "livres"))
	assert.Equal(t, "3 livres", formatCount(3, "livre", "livres"))
}
