package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/entities"
)

type recordingReporter struct {
	userID    uint
	started   int
	updates   []string
	completed bool
}

func (r *recordingReporter) StartSync(userID uint, total int) error {
	r.userID = userID
	r.started = total
	return nil
}

func (r *recordingReporter) UpdateProgress(userID uint, processed, succeeded, failed, skipped int, currentItem string) error {
	r.updates = append(r.updates, currentItem)
	return nil
}

func (r *recordingReporter) CompleteSync(userID uint, succeeded bool, errorMsg string) error {
	r.completed = succeeded
	return nil
}

func (r *recordingReporter) IsSyncRunning(userID uint) (bool, error) {
	return r.started > 0 && !r.completed, nil
}

func TestBarReporter_ForwardsToInner(t *testing.T) {
	inner := &recordingReporter{}
	var out bytes.Buffer
	r := newBarReporter(inner, &out)

	require.NoError(t, r.StartSync(3, 2))
	running, err := r.IsSyncRunning(3)
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, r.UpdateProgress(3, 1, 1, 0, 0, "Dune"))
	require.NoError(t, r.UpdateProgress(3, 2, 1, 0, 1, "Fondation"))
	require.NoError(t, r.CompleteSync(3, true, ""))

	assert.Equal(t, uint(3), inner.userID)
	assert.Equal(t, 2, inner.started)
	assert.Equal(t, []string{"Dune", "Fondation"}, inner.updates)
	assert.True(t, inner.completed)
}

func TestPrintEnrichmentResult(t *testing.T) {
	var out bytes.Buffer
	printEnrichmentResult(&out, &catalog.BulkEnrichmentResult{
		TotalBooks: 3, Enriched: 1, Skipped: 1, Failed: 1,
		Errors: []string{"Fondation: timeout"},
	})
	assert.Contains(t, out.String(), "Books missing metadata: 3")
	assert.Contains(t, out.String(), "Enriched: 1")
	assert.Contains(t, out.String(), "  - Fondation: timeout")
}

func TestEnrichAllCommand_MissingDatabase(t *testing.T) {
	cmd := NewEnrichAllCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", t.TempDir() + "/missing.db"}))
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database does not exist")
}

func TestEnrichAllCommand_ParseFlags(t *testing.T) {
	cmd := NewEnrichAllCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", "lib.db"}))
	assert.Equal(t, entities.AllUsers, cmd.UserID)

	cmd = NewEnrichAllCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", "lib.db", "-user", "7"}))
	assert.Equal(t, uint(7), cmd.UserID)
}
