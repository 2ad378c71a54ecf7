package audit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mylibrary/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_audit_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_LogEvent_SetsCreatedAt(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	event := &entities.AuditEvent{UserID: 1, EventType: entities.AuditEventAuth, Action: "login"}
	require.NoError(t, repo.LogEvent(event))

	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_FindEvents(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	events := []*entities.AuditEvent{
		{UserID: 1, EventType: entities.AuditEventAuth, Action: "login", CreatedAt: base},
		{UserID: 1, EventType: entities.AuditEventBook, Action: "book_create", CreatedAt: base.Add(time.Minute)},
		{UserID: 1, EventType: entities.AuditEventBook, Action: "book_delete", CreatedAt: base.Add(2 * time.Minute)},
		{UserID: 2, EventType: entities.AuditEventBook, Action: "book_create", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range events {
		require.NoError(t, repo.LogEvent(e))
	}

	t.Run("by user, newest first", func(t *testing.T) {
		got, total, err := repo.FindEvents(Filter{UserID: 1}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 3)
		assert.Equal(t, "book_delete", got[0].Action)
	})

	t.Run("by type across users", func(t *testing.T) {
		_, total, err := repo.FindEvents(Filter{EventType: entities.AuditEventBook}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("pagination", func(t *testing.T) {
		got, total, err := repo.FindEvents(Filter{UserID: 1}, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 1)
		assert.Equal(t, "book_create", got[0].Action)
	})

	t.Run("since", func(t *testing.T) {
		_, total, err := repo.FindEvents(Filter{Since: base.Add(90 * time.Second)}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: "old", CreatedAt: time.Now().AddDate(0, 0, -40)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: "new"}))

	deleted, err := repo.DeleteOldEvents(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	require.NoError(t, repo.DeleteForUser(1))
	_, total, err := repo.FindEvents(Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
