// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── metadata.go      # Adapters for the catalog enricher
//	├── books/           # Library entries (livres) per user
//	├── users/           # Accounts, login bookkeeping, account deletion
//	├── settings/        # Per-user preferences
//	├── aicache/         # Cached AI recommendations and summaries
//	├── audit/           # Audit trail
//	└── sync/            # Bulk enrichment progress
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./mylibrary.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	list, err := booksRepo.ListForUser(userID)
//
// Each Repository wraps a *gorm.DB and is safe for concurrent use.
package database
