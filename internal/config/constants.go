package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./mylibrary.db"

	// DefaultCoversCacheDir is where downloaded cover thumbnails are kept
	DefaultCoversCacheDir = "./covers"

	DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1"
	DefaultOpenLibraryURL = "https://openlibrary.org"
)
