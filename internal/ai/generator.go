// Package ai generates reading recommendations and book summaries with a
// language model, and enriches recommendations with catalog metadata.
//
// Providers are interchangeable behind TextGenerator:
//
//	gen, err := ai.NewGenerator(cfg.AI)
//	recommender := ai.NewRecommender(gen, booksRepo, cacheRepo, ai.RecommenderConfig{})
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/mylibrary/internal/config"
)

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewGenerator builds the generator selected by cfg.Provider. An empty or
// "none" provider yields the offline StaticGenerator.
func NewGenerator(cfg config.AI) (TextGenerator, error) {
	switch config.AIProvider(strings.ToLower(string(cfg.Provider))) {
	case "", config.AIProviderNone:
		return NewStaticGenerator(), nil
	case config.AIProviderGemini:
		return NewGeminiGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	case config.AIProviderOpenAI:
		return NewOpenAICompatGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
