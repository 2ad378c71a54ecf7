package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/database"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
)

// EnrichAllCommand fills missing catalog metadata of stored books, working on
// the database file directly instead of through the server. Without -user
// every account is covered.
type EnrichAllCommand struct {
	DatabasePath string
	UserID       uint
	Verbose      bool

	out io.Writer
}

func NewEnrichAllCommand() *EnrichAllCommand {
	return &EnrichAllCommand{}
}

func (cmd *EnrichAllCommand) ParseFlags(args []string) error {
	fs := newFlagSet("enrich-all", "enrich-all [-db PATH] [-user ID] [-verbose]")
	fs.StringVar(&cmd.DatabasePath, "db", envOr("DATABASE_PATH", config.DefaultDatabasePath), "Path to the database file")
	fs.UintVar(&cmd.UserID, "user", entities.AllUsers, "Only enrich the books of this account")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log every lookup")
	return fs.Parse(args)
}

func (cmd *EnrichAllCommand) Run() error {
	if _, err := os.Stat(cmd.DatabasePath); os.IsNotExist(err) {
		return fmt.Errorf("database does not exist: %s", cmd.DatabasePath)
	}

	cfg := config.NewConfig()
	level := "warn"
	if cmd.Verbose {
		level = "debug"
	}
	logger.Setup(level, cfg.Log.Format)

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	google := catalog.NewGoogleBooksClient(catalog.GoogleBooksConfig{
		BaseURL:           cfg.Catalog.GoogleBooksURL,
		APIKey:            cfg.Catalog.GoogleBooksAPIKey,
		Timeout:           cfg.Catalog.Timeout,
		MaxResults:        cfg.Catalog.MaxResults,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	})
	openLibrary := catalog.NewOpenLibraryClient(cfg.Catalog.OpenLibraryURL, cfg.Catalog.Timeout)

	enricher := catalog.NewEnricher(database.NewMetadataUpdater(db), google, openLibrary)
	enricher.SetProgressReporter(newBarReporter(database.NewEnrichmentProgress(db), os.Stderr))

	result, err := enricher.EnrichAllMissing(context.Background(), cmd.UserID)
	if err != nil {
		return err
	}
	printEnrichmentResult(cmd.writer(), result)
	return nil
}

func (cmd *EnrichAllCommand) writer() io.Writer {
	if cmd.out == nil {
		return os.Stdout
	}
	return cmd.out
}

func printEnrichmentResult(w io.Writer, result *catalog.BulkEnrichmentResult) {
	fmt.Fprintf(w, "\n=== Enrichment Results ===\n")
	fmt.Fprintf(w, "Books missing metadata: %d\n", result.TotalBooks)
	fmt.Fprintf(w, "Enriched: %d\n", result.Enriched)
	fmt.Fprintf(w, "Skipped:  %d\n", result.Skipped)
	fmt.Fprintf(w, "Failed:   %d\n", result.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}

// barReporter mirrors progress to the stored sync record, so a running
// server reports it too, and to a terminal progress bar.
type barReporter struct {
	catalog.ProgressReporter
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBarReporter(inner catalog.ProgressReporter, out io.Writer) *barReporter {
	return &barReporter{ProgressReporter: inner, out: out}
}

func (r *barReporter) StartSync(userID uint, total int) error {
	if err := r.ProgressReporter.StartSync(userID, total); err != nil {
		return err
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("Enrichissement"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return nil
}

func (r *barReporter) UpdateProgress(userID uint, processed, succeeded, failed, skipped int, currentItem string) error {
	if r.bar != nil {
		r.bar.Describe(currentItem)
		_ = r.bar.Set(processed)
	}
	return r.ProgressReporter.UpdateProgress(userID, processed, succeeded, failed, skipped, currentItem)
}

func (r *barReporter) CompleteSync(userID uint, succeeded bool, errorMsg string) error {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	return r.ProgressReporter.CompleteSync(userID, succeeded, errorMsg)
}
