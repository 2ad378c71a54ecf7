package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, BookStatus("read").Valid())
	assert.False(t, BookStatus("").Valid())
}

func TestBook_HasCategory(t *testing.T) {
	b := Book{Categories: []string{"Fiction", "Science"}}

	assert.True(t, b.HasCategory("fiction"))
	assert.True(t, b.HasCategory("SCIENCE"))
	assert.False(t, b.HasCategory("History"))
	assert.False(t, (&Book{}).HasCategory("Fiction"))
}

func TestBook_NoteValue(t *testing.T) {
	four := 4
	assert.Equal(t, 0, (&Book{}).NoteValue())
	assert.Equal(t, 4, (&Book{Note: &four}).NoteValue())
}

func TestSearchResult_ToBook(t *testing.T) {
	pages := 320
	rating := 4.5

	t.Run("copies catalog fields", func(t *testing.T) {
		r := SearchResult{
			Title:         "Dune",
			Authors:       "Frank Herbert",
			ISBN:          "9780441013593",
			ImageURL:      "http://img/dune.jpg",
			Categories:    []string{"Fiction"},
			Publisher:     "Ace",
			PublishedDate: "1965",
			PageCount:     &pages,
			Language:      "en",
			AverageRating: &rating,
		}

		b := r.ToBook()
		assert.Equal(t, "Dune", b.Title)
		assert.Equal(t, "Frank Herbert", b.Author)
		assert.Equal(t, StatusToRead, b.Status)
		assert.Equal(t, "en", b.Language)
		assert.Equal(t, []string{"Fiction"}, b.Categories)
		assert.Equal(t, &pages, b.PageCount)
		assert.Equal(t, &rating, b.AverageRatingGoogle)
		assert.Empty(t, b.Memo)
		assert.Nil(t, b.Note)
		assert.Zero(t, b.ID)
	})

	t.Run("defaults language to fr", func(t *testing.T) {
		b := SearchResult{Title: "Germinal", Authors: "Zola"}.ToBook()
		assert.Equal(t, DefaultLanguage, b.Language)
		assert.Nil(t, b.Categories)
	})
}

func TestPreferenceValidation(t *testing.T) {
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme(7).Valid())
	assert.Equal(t, "Pomme", ThemeApple.String())
	assert.Equal(t, "Clair", Theme(42).String())

	assert.True(t, ValidProfilePicture("pp_renne"))
	assert.False(t, ValidProfilePicture("pp_dragon"))

	def := DefaultPreferences()
	assert.Equal(t, ThemeLight, def.Theme)
	assert.Equal(t, "pp_hiboux", def.ProfilePicture)
}

func TestSyncProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, (&SyncProgress{}).Percent())
	assert.Equal(t, 100, (&SyncProgress{Status: SyncStatusCompleted}).Percent())
	assert.Equal(t, 50, (&SyncProgress{TotalItems: 4, Processed: 2}).Percent())
	assert.Equal(t, 100, (&SyncProgress{TotalItems: 2, Processed: 3}).Percent())
}

func TestSyncProgress_Stale(t *testing.T) {
	now := time.Now()
	running := &SyncProgress{Status: SyncStatusRunning, UpdatedAt: now.Add(-time.Hour)}
	assert.True(t, running.Stale(now, 10*time.Minute))
	assert.False(t, running.Stale(now, 2*time.Hour))

	done := &SyncProgress{Status: SyncStatusCompleted, UpdatedAt: now.Add(-time.Hour)}
	assert.False(t, done.Stale(now, 10*time.Minute))
}
