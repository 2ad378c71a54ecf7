package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/mylibrary/internal/database/aicache"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

const (
	DefaultRecommendTTL      = 24 * time.Hour
	DefaultMaxRecommendation = 6
)

// BookLister returns every book of a user.
type BookLister interface {
	ListForUser(userID uint) ([]entities.Book, error)
}

// RecommendationStore persists generated lists per user.
type RecommendationStore interface {
	GetRecommendations(userID uint, now time.Time) (*entities.RecommendationCache, error)
	SaveRecommendations(entry *entities.RecommendationCache) error
}

type RecommenderConfig struct {
	TTL                time.Duration
	MaxRecommendations int
}

type Recommender struct {
	generator TextGenerator
	books     BookLister
	cache     RecommendationStore
	ttl       time.Duration
	max       int
	now       func() time.Time
}

func NewRecommender(generator TextGenerator, books BookLister, cache RecommendationStore, cfg RecommenderConfig) *Recommender {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRecommendTTL
	}
	if cfg.MaxRecommendations <= 0 {
		cfg.MaxRecommendations = DefaultMaxRecommendation
	}
	return &Recommender{
		generator: generator,
		books:     books,
		cache:     cache,
		ttl:       cfg.TTL,
		max:       cfg.MaxRecommendations,
		now:       time.Now,
	}
}

// Recommendations returns the user's list, from cache unless refresh is set
// or the cached list expired. Users without read books get an empty list.
func (r *Recommender) Recommendations(ctx context.Context, userID uint, refresh bool) (*entities.RecommendationsResponse, error) {
	defer logger.Track(ctx, "ai recommendations")()

	all, err := r.books.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	read := library.ReadBooks(all)
	if len(read) == 0 {
		return &entities.RecommendationsResponse{Recommendations: []entities.BookRecommendation{}}, nil
	}

	now := r.now()
	if !refresh {
		if cached, ok := r.fromCache(ctx, userID, now); ok {
			return cached, nil
		}
	}

	text, err := r.generator.GenerateText(ctx, recommendSystemPrompt, recommendationPrompt(read, all, r.max))
	if err != nil {
		metrics.AIGenerationsTotal.WithLabelValues("recommendations", "error").Inc()
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}
	recs, err := ParseRecommendations(text)
	if err != nil {
		metrics.AIGenerationsTotal.WithLabelValues("recommendations", "invalid").Inc()
		return nil, err
	}
	metrics.AIGenerationsTotal.WithLabelValues("recommendations", "ok").Inc()

	recs = withoutOwned(recs, all)
	if len(recs) > r.max {
		recs = recs[:r.max]
	}

	payload, err := json.Marshal(recs)
	if err != nil {
		return nil, err
	}
	entry := &entities.RecommendationCache{
		UserID:      userID,
		Payload:     string(payload),
		GeneratedAt: now,
		ExpiresAt:   now.Add(r.ttl),
	}
	if err := r.cache.SaveRecommendations(entry); err != nil {
		logger.For(ctx).WithError(err).WithField("user_id", userID).Warn("failed to cache recommendations")
	}

	return &entities.RecommendationsResponse{
		Recommendations: recs,
		Cached:          false,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
	}, nil
}

func (r *Recommender) fromCache(ctx context.Context, userID uint, now time.Time) (*entities.RecommendationsResponse, bool) {
	entry, err := r.cache.GetRecommendations(userID, now)
	if err != nil {
		if !errors.Is(err, aicache.ErrCacheMiss) {
			logger.For(ctx).WithError(err).Warn("recommendation cache lookup failed")
		}
		return nil, false
	}
	var recs []entities.BookRecommendation
	if err := json.Unmarshal([]byte(entry.Payload), &recs); err != nil {
		logger.For(ctx).WithError(err).Warn("discarding corrupt recommendation cache")
		return nil, false
	}
	return &entities.RecommendationsResponse{
		Recommendations: recs,
		Cached:          true,
		GeneratedAt:     entry.GeneratedAt.UTC().Format(time.RFC3339),
	}, true
}

func withoutOwned(recs []entities.BookRecommendation, owned []entities.Book) []entities.BookRecommendation {
	titles := make(map[string]struct{}, len(owned))
	isbns := make(map[string]struct{}, len(owned))
	for _, b := range owned {
		titles[normalizeTitle(b.Title)] = struct{}{}
		if b.ISBN != "" {
			isbns[b.ISBN] = struct{}{}
		}
	}

	kept := make([]entities.BookRecommendation, 0, len(recs))
	for _, rec := range recs {
		if _, ok := titles[normalizeTitle(rec.Title)]; ok {
			continue
		}
		if _, ok := isbns[rec.ISBN]; ok && rec.ISBN != "" {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
