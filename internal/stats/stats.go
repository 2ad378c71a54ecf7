// Package stats computes the reading statistics shown on the profile screen.
package stats

import (
	"strings"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/gamification"
)

// Placeholders shown when there is no favourite yet.
const (
	NoFavoriteAuthor   = "Personne pour l'instant :)"
	NoFavoriteCategory = "Aucune pour l'instant"
)

type Stats struct {
	Total            int                `json:"total"`
	Read             int                `json:"read"`
	ToRead           int                `json:"toRead"`
	Reading          int                `json:"reading"`
	Abandoned        int                `json:"abandoned"`
	FavoriteAuthor   string             `json:"favoriteAuthor,omitempty"`
	FavoriteCategory string             `json:"favoriteCategory,omitempty"`
	Level            gamification.Level `json:"level"`
}

// FavoriteAuthorLabel returns the favourite author or its placeholder.
func (s Stats) FavoriteAuthorLabel() string {
	if s.FavoriteAuthor == "" {
		return NoFavoriteAuthor
	}
	return s.FavoriteAuthor
}

// FavoriteCategoryLabel returns the favourite category or its placeholder.
func (s Stats) FavoriteCategoryLabel() string {
	if s.FavoriteCategory == "" {
		return NoFavoriteCategory
	}
	return s.FavoriteCategory
}

func Compute(books []entities.Book) Stats {
	s := Stats{Total: len(books)}

	authors := newCounter()
	categories := newCounter()

	for _, book := range books {
		switch book.Status {
		case entities.StatusRead:
			s.Read++
			if author := strings.TrimSpace(book.Author); author != "" {
				authors.add(author)
			}
			for _, c := range book.Categories {
				if c = strings.TrimSpace(c); c != "" {
					categories.add(c)
				}
			}
		case entities.StatusToRead:
			s.ToRead++
		case entities.StatusReading:
			s.Reading++
		case entities.StatusAbandoned:
			s.Abandoned++
		}
	}

	s.FavoriteAuthor = authors.top()
	s.FavoriteCategory = categories.top()
	s.Level = gamification.ComputeLevel(s.Read)
	return s
}

// counter keeps insertion order so ties go to the first value seen.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top() string {
	best, bestCount := "", 0
	for _, key := range c.order {
		if c.counts[key] > bestCount {
			best, bestCount = key, c.counts[key]
		}
	}
	return best
}
