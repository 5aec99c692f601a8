package scanstate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartScanTwiceReturnsSentinel(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	first, err := m.StartScan(userID)
	require.NoError(t, err)
	assert.True(t, first.IsRunning)
	require.NotNil(t, first.StartedAt)

	second, err := m.StartScan(userID)
	assert.ErrorIs(t, err, ErrScanInProgress)
	// State is unchanged by the rejected start.
	assert.Equal(t, first.StartedAt.Unix(), second.StartedAt.Unix())
	assert.True(t, second.IsRunning)
}

func TestStartScanResetsPriorRun(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	_, err := m.StartScan(userID)
	require.NoError(t, err)
	scanned := 10
	m.UpdateStatus(userID, Update{FilesScanned: &scanned})
	m.AppendError(userID, "boom")
	m.FinishScan(userID)

	status, err := m.StartScan(userID)
	require.NoError(t, err)
	assert.Zero(t, status.FilesScanned)
	assert.Empty(t, status.Errors)
}

func TestCancelScan(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	_, err := m.CancelScan(userID)
	assert.ErrorIs(t, err, ErrNoScanRunning)

	_, err = m.StartScan(userID)
	require.NoError(t, err)
	assert.False(t, m.IsCancelRequested(userID))

	_, err = m.CancelScan(userID)
	require.NoError(t, err)
	assert.True(t, m.IsCancelRequested(userID))

	// Finish clears the flag.
	m.FinishScan(userID)
	assert.False(t, m.IsCancelRequested(userID))
}

func TestFinishScanRetainsCountersAndErrors(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	_, err := m.StartScan(userID)
	require.NoError(t, err)

	loc := "/media/tv"
	file := "/media/tv/show/e1.mkv"
	scanned, total := 7, 9
	m.UpdateStatus(userID, Update{
		CurrentLocation: &loc,
		CurrentFile:     &file,
		FilesScanned:    &scanned,
		FilesTotal:      &total,
	})
	m.AppendError(userID, "unreadable file")

	status := m.FinishScan(userID)
	assert.False(t, status.IsRunning)
	assert.Empty(t, status.CurrentLocation)
	assert.Empty(t, status.CurrentFile)
	assert.Equal(t, 7, status.FilesScanned)
	assert.Equal(t, 9, status.FilesTotal)
	assert.Equal(t, []string{"unreadable file"}, status.Errors)
}

func TestPerUserIsolation(t *testing.T) {
	m := NewManager()
	alice := uuid.New()
	bob := uuid.New()

	_, err := m.StartScan(alice)
	require.NoError(t, err)

	// Bob's scan is unaffected by Alice's running scan.
	_, err = m.StartScan(bob)
	require.NoError(t, err)

	_, err = m.CancelScan(alice)
	require.NoError(t, err)
	assert.True(t, m.IsCancelRequested(alice))
	assert.False(t, m.IsCancelRequested(bob))
}

func TestStatusSnapshotIsDeepCopy(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	_, err := m.StartScan(userID)
	require.NoError(t, err)
	m.AppendError(userID, "first")

	snapshot := m.GetStatus(userID)
	snapshot.Errors[0] = "mutated"
	snapshot.FilesScanned = 99

	fresh := m.GetStatus(userID)
	assert.Equal(t, []string{"first"}, fresh.Errors)
	assert.Zero(t, fresh.FilesScanned)
}

func TestReset(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	_, err := m.StartScan(userID)
	require.NoError(t, err)
	m.Reset(userID)

	status := m.GetStatus(userID)
	assert.False(t, status.IsRunning)
}
