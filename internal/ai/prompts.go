package ai

import (
	"fmt"
	"strings"

	"github.com/mrlokans/mylibrary/internal/entities"
)

const recommendSystemPrompt = `Tu es un libraire passionné. À partir des livres lus par un lecteur, ` +
	`propose des livres qu'il n'a pas encore. Réponds uniquement avec un objet JSON de la forme ` +
	`{"recommendations":[{"title":"...","author":"...","isbn":"...","reason":"..."}]}. ` +
	`Le champ isbn est facultatif (ISBN-13 sans tirets). La raison tient en une ou deux phrases, en français.`

const summarySystemPrompt = `Tu es un critique littéraire. Rédige en français un résumé sans ` +
	`divulgâcher la fin, en un ou deux paragraphes de texte brut, sans titre ni liste.`

const (
	titleLabel  = "Titre: "
	authorLabel = "Auteur: "
)

func recommendationPrompt(read, owned []entities.Book, max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Propose %d livres.\n\nLivres lus:\n", max)
	for _, book := range read {
		fmt.Fprintf(&b, "- %s de %s", book.Title, book.Author)
		if book.Note != nil {
			fmt.Fprintf(&b, " (note %d/5)", *book.Note)
		}
		if len(book.Categories) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(book.Categories, ", "))
		}
		b.WriteString("\n")
	}
	if len(owned) > 0 {
		b.WriteString("\nDéjà dans la bibliothèque, à ne pas proposer:\n")
		for _, book := range owned {
			fmt.Fprintf(&b, "- %s de %s\n", book.Title, book.Author)
		}
	}
	return b.String()
}

func summaryPrompt(book *entities.Book) string {
	var b strings.Builder
	b.WriteString(titleLabel + book.Title + "\n")
	b.WriteString(authorLabel + book.Author + "\n")
	if book.ISBN != "" {
		b.WriteString("ISBN: " + book.ISBN + "\n")
	}
	if len(book.Categories) > 0 {
		b.WriteString("Catégories: " + strings.Join(book.Categories, ", ") + "\n")
	}
	return b.String()
}

// promptField reads a "Label: value" line back from a prompt.
func promptField(prompt, label string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, label) {
			return strings.TrimSpace(strings.TrimPrefix(line, label))
		}
	}
	return ""
}
