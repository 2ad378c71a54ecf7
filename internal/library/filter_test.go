package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/entities"
)

func ptr[T any](v T) *T { return &v }

func sampleBooks() []entities.Book {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []entities.Book{
		{ID: 1, Title: "Germinal", Author: "Émile Zola", Status: entities.StatusRead,
			Categories: []string{"Fiction", "History"}, Note: ptr(4), DateAjout: ptr(base)},
		{ID: 2, Title: "Dune", Author: "Frank Herbert", Status: entities.StatusReading,
			Categories: []string{"Science Fiction"}, DateAjout: ptr(base.Add(48 * time.Hour))},
		{ID: 3, Title: "Candide", Author: "Voltaire", Status: entities.StatusToRead,
			Categories: []string{"fiction"}, Note: ptr(5)},
		{ID: 4, Title: "Nana", Author: "Émile Zola", Status: entities.StatusToRead,
			Note: ptr(4), DateAjout: ptr(base.Add(24 * time.Hour))},
	}
}

func ids(books []entities.Book) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	books := sampleBooks()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"zero filter keeps order", Filter{}, []int64{1, 2, 3, 4}},
		{"query on author, any case", Filter{Query: "zola"}, []int64{1, 4}},
		{"query on title", Filter{Query: "  DUN "}, []int64{2}},
		{"status", Filter{Status: "à lire"}, []int64{3, 4}},
		{"status Tous", Filter{Status: AllValue}, []int64{1, 2, 3, 4}},
		{"category ignores case", Filter{Category: "FICTION"}, []int64{1, 3}},
		{"category Tous", Filter{Category: AllValue}, []int64{1, 2, 3, 4}},
		{"combined", Filter{Query: "zola", Status: "lu"}, []int64{1}},
		{"date desc, missing last", Filter{Sort: SortDate}, []int64{2, 4, 1, 3}},
		{"note desc, stable", Filter{Sort: SortNote}, []int64{3, 1, 4, 2}},
		{"title asc", Filter{Sort: SortTitle}, []int64{3, 2, 1, 4}},
		{"no match", Filter{Query: "proust"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(books)))
		})
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(books), "input is not reordered")
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortDate, ParseSort("date"))
	assert.Equal(t, SortNote, ParseSort(" NOTE "))
	assert.Equal(t, SortTitle, ParseSort("title"))
	assert.Equal(t, SortNone, ParseSort("author"))
	assert.Equal(t, SortNone, ParseSort(""))
}

func TestCategories(t *testing.T) {
	books := sampleBooks()
	books = append(books, entities.Book{Categories: []string{" ", "History"}})

	assert.Equal(t, []string{"Fiction", "History", "Science Fiction", "fiction"}, Categories(books))
	assert.Empty(t, Categories(nil))
}

func TestHome(t *testing.T) {
	sections := Home(sampleBooks())
	assert.Equal(t, []int64{2}, ids(sections.Reading))
	assert.Equal(t, []int64{3, 4}, ids(sections.ToRead))

	empty := Home(nil)
	require.NotNil(t, empty.Reading)
	require.NotNil(t, empty.ToRead)
}

func TestReadBooks(t *testing.T) {
	assert.Equal(t, []int64{1}, ids(ReadBooks(sampleBooks())))
	assert.Nil(t, ReadBooks(nil))
}
