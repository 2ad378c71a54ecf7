package entities

type Badge struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MinBooks    int    `json:"minBooks"`
	MaxBooks    int    `json:"maxBooks"`
	ImageURL    string `json:"imageUrl"`
	IsUnlocked  bool   `json:"isUnlocked"`
	Progress    int    `json:"progress"`
	BooksNeeded int    `json:"booksNeeded"`
}

type BadgesResponse struct {
	Badges         []Badge `json:"badges"`
	TotalBooksRead int     `json:"totalBooksRead"`
}
