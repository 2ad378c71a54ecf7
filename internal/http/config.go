package http

import (
	"github.com/mrlokans/mylibrary/internal/auth"
	"github.com/mrlokans/mylibrary/internal/catalog"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional dependencies disable their routes
// when nil.
type RouterConfig struct {
	// Core dependencies
	Database  Pinger
	Books     BookStore
	Prefs     PreferencesStore
	Auditor   Auditor
	AuditLog  AuditReader
	AuthAudit auth.AuditLogger

	// Authentication
	AuthService  *auth.Service
	LoginLimiter auth.LoginLimiter

	// Catalog search and metadata enrichment
	Catalog           catalog.Provider
	CatalogMaxResults int
	Enricher          BookEnricher
	SyncProgress      SyncStatusReader

	// AI (optional)
	Recommender RecommendationSource
	Summarizer  SummarySource

	// Cover caching (optional)
	CoverCache CoverSource

	// Shared cache backing sessions and catalog results (optional)
	CachePinger Pinger

	// Task queue (optional)
	TaskQueue  TaskQueue
	TaskPinger Pinger

	// Static badge images
	ImagesDir     string
	ImagesBaseURL string

	// Application info
	Version string
}
