// Package library filters, sorts and groups a user's books the way the
// library and home screens present them.
package library

import (
	"sort"
	"strings"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// AllValue disables a status or category filter.
const AllValue = "Tous"

type SortOrder string

const (
	SortNone  SortOrder = ""
	SortDate  SortOrder = "date"
	SortNote  SortOrder = "note"
	SortTitle SortOrder = "title"
)

// ParseSort maps a query value to a sort order. Unknown values keep the
// stored order.
func ParseSort(value string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case SortDate:
		return SortDate
	case SortNote:
		return SortNote
	case SortTitle:
		return SortTitle
	default:
		return SortNone
	}
}

// Filter selects and orders books. Zero values match everything.
type Filter struct {
	Query    string
	Status   string
	Category string
	Sort     SortOrder
}

func (f Filter) matches(book *entities.Book) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(book.Title), q) &&
			!strings.Contains(strings.ToLower(book.Author), q) {
			return false
		}
	}
	if f.Status != "" && f.Status != AllValue && string(book.Status) != f.Status {
		return false
	}
	if f.Category != "" && f.Category != AllValue && !book.HasCategory(f.Category) {
		return false
	}
	return true
}

// Apply returns the matching books in the requested order. The input slice is
// left untouched.
func (f Filter) Apply(books []entities.Book) []entities.Book {
	result := make([]entities.Book, 0, len(books))
	for i := range books {
		if f.matches(&books[i]) {
			result = append(result, books[i])
		}
	}
	sortBooks(result, f.Sort)
	return result
}

func sortBooks(books []entities.Book, order SortOrder) {
	switch order {
	case SortDate:
		sort.SliceStable(books, func(i, j int) bool {
			a, b := books[i].DateAjout, books[j].DateAjout
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	case SortNote:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].NoteValue() > books[j].NoteValue()
		})
	case SortTitle:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Title < books[j].Title
		})
	}
}

// Categories returns every non-blank category, distinct and sorted.
func Categories(books []entities.Book) []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, book := range books {
		for _, c := range book.Categories {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories
}

// HomeSections holds the two lists shown on the home screen.
type HomeSections struct {
	Reading []entities.Book `json:"en_cours"`
	ToRead  []entities.Book `json:"a_lire"`
}

// Home splits books into the "en cours" and "à lire" sections, keeping order.
func Home(books []entities.Book) HomeSections {
	sections := HomeSections{Reading: []entities.Book{}, ToRead: []entities.Book{}}
	for _, book := range books {
		switch book.Status {
		case entities.StatusReading:
			sections.Reading = append(sections.Reading, book)
		case entities.StatusToRead:
			sections.ToRead = append(sections.ToRead, book)
		}
	}
	return sections
}

// ReadBooks returns the books marked "lu".
func ReadBooks(books []entities.Book) []entities.Book {
	var read []entities.Book
	for _, book := range books {
		if book.Status == entities.StatusRead {
			read = append(read, book)
		}
	}
	return read
}
