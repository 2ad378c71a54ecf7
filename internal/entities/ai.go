package entities

import "time"

type BookRecommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn,omitempty"`
	Reason string `json:"reason"`
}

type RecommendationsResponse struct {
	Recommendations []BookRecommendation `json:"recommendations"`
	Cached          bool                 `json:"cached"`
	GeneratedAt     string               `json:"generatedAt"`
}

type BookSummary struct {
	Summary string `json:"summary"`
	ISBN    string `json:"isbn,omitempty"`
	Cached  bool   `json:"cached"`
}

// RecommendationCache stores the last generated list per user as JSON.
type RecommendationCache struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"uniqueIndex"`
	Payload     string    `gorm:"type:text"`
	GeneratedAt time.Time `gorm:"index"`
	ExpiresAt   time.Time `gorm:"index"`
}

func (RecommendationCache) TableName() string {
	return "ai_recommendations"
}

type SummaryCache struct {
	ID        uint   `gorm:"primaryKey"`
	BookID    int64  `gorm:"uniqueIndex"`
	UserID    uint   `gorm:"index"`
	Summary   string `gorm:"type:text"`
	ISBN      string `gorm:"size:20"`
	CreatedAt time.Time
}

func (SummaryCache) TableName() string {
	return "ai_summaries"
}
