package gamification

import (
	"fmt"
	"strings"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// BadgeImagePath is the server-relative directory badge images are served from.
const BadgeImagePath = "/images/badges/"

type badgeDef struct {
	id       int
	name     string
	minBooks int
	maxBooks int
}

// badgeCatalogue mirrors the level tiers above the starting one.
var badgeCatalogue = []badgeDef{
	{1, "Débutant", 1, 3},
	{2, "Novice", 3, 5},
	{3, "Amateur", 5, 10},
	{4, "Passionné", 10, 20},
	{5, "Expert", 20, 30},
	{6, "Maître", 30, 40},
	{7, "Légende", 40, 999},
}

// Badges evaluates the catalogue for readCount. imageBase, when set, is
// prepended to each image path.
func Badges(readCount int, imageBase string) entities.BadgesResponse {
	if readCount < 0 {
		readCount = 0
	}
	badges := make([]entities.Badge, 0, len(badgeCatalogue))
	for _, def := range badgeCatalogue {
		badges = append(badges, evaluate(def, readCount, imageBase))
	}
	return entities.BadgesResponse{Badges: badges, TotalBooksRead: readCount}
}

func evaluate(def badgeDef, count int, imageBase string) entities.Badge {
	unlocked := count >= def.minBooks
	progress := 100
	if !unlocked {
		progress = min(100, count*100/def.minBooks)
	}
	return entities.Badge{
		ID:          def.id,
		Name:        def.name,
		MinBooks:    def.minBooks,
		MaxBooks:    def.maxBooks,
		ImageURL:    ImageURL(imageBase, fmt.Sprintf("%sbadge_%d.png", BadgeImagePath, def.id)),
		IsUnlocked:  unlocked,
		Progress:    progress,
		BooksNeeded: max(0, def.minBooks-count),
	}
}

// ImageURL joins base and path without doubling the slash. Absolute paths
// are returned as they are.
func ImageURL(base, path string) string {
	if base == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// UnlockedCount returns how many badges are unlocked.
func UnlockedCount(resp entities.BadgesResponse) int {
	n := 0
	for _, b := range resp.Badges {
		if b.IsUnlocked {
			n++
		}
	}
	return n
}
