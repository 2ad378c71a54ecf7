package entities

// SearchResult is a simplified external catalog hit.
type SearchResult struct {
	Title         string   `json:"title"`
	Authors       string   `json:"authors"`
	ISBN          string   `json:"isbn,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Description   string   `json:"description,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	PageCount     *int     `json:"pageCount,omitempty"`
	Language      string   `json:"language,omitempty"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}

// ToBook converts a catalog hit into a new, unsaved library entry.
func (r SearchResult) ToBook() Book {
	language := r.Language
	if language == "" {
		language = DefaultLanguage
	}
	var categories []string
	if len(r.Categories) > 0 {
		categories = append(categories, r.Categories...)
	}
	return Book{
		Title:               r.Title,
		Author:              r.Authors,
		Categories:          categories,
		ISBN:                r.ISBN,
		Publisher:           r.Publisher,
		PublishedDate:       r.PublishedDate,
		PageCount:           r.PageCount,
		Language:            language,
		AverageRatingGoogle: r.AverageRating,
		Status:              StatusToRead,
		ImageURL:            r.ImageURL,
	}
}
