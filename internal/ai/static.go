package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// StaticGenerator answers the prompts of this package without a model. It is
// used when no provider is configured so the endpoints stay usable offline.
type StaticGenerator struct {
	Catalogue []entities.BookRecommendation
}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{Catalogue: []entities.BookRecommendation{
		{Title: "L'Étranger", Author: "Albert Camus", ISBN: "9782070360024", Reason: "Un classique bref et marquant de la littérature française."},
		{Title: "Le Petit Prince", Author: "Antoine de Saint-Exupéry", ISBN: "9782070612758", Reason: "Un conte philosophique qui se relit à tout âge."},
		{Title: "Les Misérables", Author: "Victor Hugo", Reason: "Une fresque sociale et humaine incontournable."},
		{Title: "Madame Bovary", Author: "Gustave Flaubert", Reason: "Le roman fondateur du réalisme moderne."},
		{Title: "Le Comte de Monte-Cristo", Author: "Alexandre Dumas", Reason: "Une aventure haletante de vengeance et de rédemption."},
		{Title: "La Peste", Author: "Albert Camus", Reason: "Une réflexion puissante sur la solidarité face au fléau."},
		{Title: "Vingt mille lieues sous les mers", Author: "Jules Verne", Reason: "Un voyage extraordinaire au fond des océans."},
		{Title: "Bel-Ami", Author: "Guy de Maupassant", Reason: "Le portrait mordant d'un arriviste parisien."},
	}}
}

func (g *StaticGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if systemPrompt == recommendSystemPrompt {
		payload, err := json.Marshal(recommendationPayload{Recommendations: g.Catalogue})
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	title := promptField(userPrompt, titleLabel)
	author := promptField(userPrompt, authorLabel)
	return fmt.Sprintf("« %s » de %s. Aucun service de résumé n'est configuré sur ce serveur : "+
		"ce texte tient lieu de résumé en attendant.", title, author), nil
}
