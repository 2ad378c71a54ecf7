package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// Client runs the background queues on their own SQLite file so long
// enrichment passes never hold locks on the library database.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	started  atomic.Bool
}

func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := openTasksDB(TasksDBPath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &taskLogger{entry: logrus.WithField("component", "tasks")},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init task queue: %w", err)
	}

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// openTasksDB uses WAL so workers can read while the dispatcher writes.
func openTasksDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tasks database %s: %w", path, err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start begins dispatching until ctx is done or Stop is called. Calls after
// the first are ignored.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	logrus.WithField("workers", c.workers).Info("task queue started")
	c.backlite.Start(ctx)
}

// Stop waits for running tasks until ctx expires and reports whether they
// all finished.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}
	if !c.backlite.Stop(ctx) {
		logrus.Warn("task queue stopped before every task completed")
		return false
	}
	logrus.Info("task queue stopped")
	return true
}

// Close releases the database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error) {
	return c.backlite.Add(tasks...).Ctx(ctx).Save()
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// Ping reports whether the tasks database answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// taskLogger forwards backlite's key/value pairs as logrus fields. Queue
// chatter goes to debug.
type taskLogger struct {
	entry *logrus.Entry
}

func (l *taskLogger) fields(params []any) *logrus.Entry {
	fields := make(logrus.Fields, len(params)/2)
	for i := 0; i+1 < len(params); i += 2 {
		if key, ok := params[i].(string); ok {
			fields[key] = params[i+1]
		}
	}
	return l.entry.WithFields(fields)
}

func (l *taskLogger) Info(message string, params ...any) {
	l.fields(params).Debug(message)
}

func (l *taskLogger) Error(message string, params ...any) {
	l.fields(params).Error(message)
}
