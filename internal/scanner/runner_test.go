package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/scanstate"
)

func newTestRunner(t *testing.T, userID uuid.UUID, state *scanstate.Manager, store *fakeStore) *Runner {
	t.Helper()
	openStore := func() (Store, error) { return store, nil }
	return NewRunner(userID, state, testScanner(userID), openStore, []string{".mkv"})
}

func TestRunnerScansAllLocations(t *testing.T) {
	userID := uuid.New()
	state := scanstate.NewManager()
	store := newFakeStore()

	rootA := t.TempDir()
	writeMediaFile(t, rootA, "Show A/Season 01/S01E01.mkv")
	writeMediaFile(t, rootA, "Show A/Season 01/S01E02.mkv")
	rootB := t.TempDir()
	writeMediaFile(t, rootB, "Show B/Season 01/S01E01.mkv")

	_, err := state.StartScan(userID)
	require.NoError(t, err)

	runner := newTestRunner(t, userID, state, store)
	require.NoError(t, runner.Run(context.Background(), []*models.ScanLocation{
		tvLocation(userID, rootA),
		tvLocation(userID, rootB),
	}))

	status := state.GetStatus(userID)
	assert.False(t, status.IsRunning)
	assert.Equal(t, 3, status.FilesTotal)
	assert.Equal(t, 3, status.FilesScanned)
	assert.Empty(t, status.Errors)
	assert.Len(t, store.files, 3)
	assert.Len(t, store.shows, 2)
	require.Positive(t, store.commits)
}

func TestRunnerCancellation(t *testing.T) {
	userID := uuid.New()
	state := scanstate.NewManager()
	store := newFakeStore()

	root := t.TempDir()
	for _, rel := range []string{
		"Show/Season 01/S01E01.mkv",
		"Show/Season 01/S01E02.mkv",
		"Show/Season 01/S01E03.mkv",
		"Show/Season 01/S01E04.mkv",
	} {
		writeMediaFile(t, root, rel)
	}

	_, err := state.StartScan(userID)
	require.NoError(t, err)

	runner := newTestRunner(t, userID, state, store)
	runner.OnProgress = func(status scanstate.Status) {
		if status.FilesScanned == 1 {
			state.CancelScan(userID)
		}
	}

	require.NoError(t, runner.Run(context.Background(), []*models.ScanLocation{
		tvLocation(userID, root),
	}))

	status := state.GetStatus(userID)
	assert.False(t, status.IsRunning, "cancelled scan must still finish")
	// Cancellation is polled per file: at most one more file after the
	// request.
	assert.LessOrEqual(t, len(store.files), 2)
}

func TestRunnerRecordsDiscoveryErrors(t *testing.T) {
	userID := uuid.New()
	state := scanstate.NewManager()
	store := newFakeStore()

	good := t.TempDir()
	writeMediaFile(t, good, "Show/Season 01/S01E01.mkv")
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := state.StartScan(userID)
	require.NoError(t, err)

	runner := newTestRunner(t, userID, state, store)
	require.NoError(t, runner.Run(context.Background(), []*models.ScanLocation{
		{ID: uuid.New(), UserID: userID, Path: missing, MediaType: models.MediaTypeTV},
		tvLocation(userID, good),
	}))

	status := state.GetStatus(userID)
	assert.False(t, status.IsRunning)
	// The broken location is reported; the good one still scanned.
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], missing)
	assert.Len(t, store.files, 1)
}

func TestRunnerRecordsPerFileErrors(t *testing.T) {
	userID := uuid.New()
	state := scanstate.NewManager()
	store := newFakeStore()

	root := t.TempDir()
	writeMediaFile(t, root, "Show/Season 01/S01E01.mkv")
	doomed := writeMediaFile(t, root, "Show/Season 01/S01E02.mkv")

	_, err := state.StartScan(userID)
	require.NoError(t, err)

	runner := newTestRunner(t, userID, state, store)
	// Delete the file after discovery, right before it is processed, so
	// ProcessFile fails on the stat.
	runner.OnProgress = func(status scanstate.Status) {
		if status.CurrentFile == doomed {
			os.Remove(doomed)
		}
	}

	require.NoError(t, runner.Run(context.Background(), []*models.ScanLocation{
		tvLocation(userID, root),
	}))

	status := state.GetStatus(userID)
	assert.False(t, status.IsRunning)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], doomed)
	assert.Len(t, store.files, 1)
}
