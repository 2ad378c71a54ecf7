package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mylibrary/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// Options tune the gorm connection. The zero value logs warnings only.
type Options struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithOptions(dbPath, Options{})
}

func NewDatabaseWithOptions(dbPath string, opts Options) (*Database, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = 200 * time.Millisecond
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Setting{},
		&entities.RecommendationCache{},
		&entities.SummaryCache{},
		&entities.AuditEvent{},
		&entities.SyncProgress{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Progress rows used to be unique per job type only
	if db.Migrator().HasIndex(&entities.SyncProgress{}, "idx_sync_progress_sync_type") {
		if err := db.Migrator().DropIndex(&entities.SyncProgress{}, "idx_sync_progress_sync_type"); err != nil {
			return nil, fmt.Errorf("failed to drop legacy sync index: %w", err)
		}
	}

	logrus.WithField("path", dbPath).Info("Database initialized successfully")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
