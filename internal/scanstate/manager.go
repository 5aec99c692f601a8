// Package scanstate coordinates scan progress and cancellation per user.
// At most one scan may run per user at any instant.
package scanstate

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScanInProgress = errors.New("a scan is already in progress")
	ErrNoScanRunning  = errors.New("no scan is currently running")
)

// Status is a point-in-time snapshot of one user's scan. Every read from
// the manager returns a deep copy.
type Status struct {
	IsRunning       bool       `json:"is_running"`
	CurrentLocation string     `json:"current_location,omitempty"`
	FilesScanned    int        `json:"files_scanned"`
	FilesTotal      int        `json:"files_total"`
	CurrentFile     string     `json:"current_file,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	Errors          []string   `json:"errors"`
}

func (s *Status) clone() Status {
	out := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	out.Errors = make([]string, len(s.Errors))
	copy(out.Errors, s.Errors)
	return out
}

type userState struct {
	status          Status
	cancelRequested bool
}

// Update carries the progress fields a caller wants to change; nil fields
// are left alone.
type Update struct {
	CurrentLocation *string
	FilesScanned    *int
	FilesTotal      *int
	CurrentFile     *string
}

// Manager owns all scan state. A single mutex guards the whole map;
// transitions are O(1) and never do I/O while holding it.
type Manager struct {
	mu     sync.Mutex
	states map[uuid.UUID]*userState
}

func NewManager() *Manager {
	return &Manager{states: make(map[uuid.UUID]*userState)}
}

func (m *Manager) state(userID uuid.UUID) *userState {
	st, ok := m.states[userID]
	if !ok {
		st = &userState{status: Status{Errors: []string{}}}
		m.states[userID] = st
	}
	return st
}

// GetStatus returns a snapshot of the user's scan state.
func (m *Manager) GetStatus(userID uuid.UUID) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state(userID).status.clone()
}

// StartScan transitions Idle→Running, resetting progress, errors, and the
// cancellation flag. Returns ErrScanInProgress if already running.
func (m *Manager) StartScan(userID uuid.UUID) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userID)
	if st.status.IsRunning {
		return st.status.clone(), ErrScanInProgress
	}

	now := time.Now().UTC()
	st.cancelRequested = false
	st.status = Status{
		IsRunning: true,
		StartedAt: &now,
		Errors:    []string{},
	}
	return st.status.clone(), nil
}

// CancelScan requests cooperative cancellation of a running scan.
func (m *Manager) CancelScan(userID uuid.UUID) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userID)
	if !st.status.IsRunning {
		return st.status.clone(), ErrNoScanRunning
	}
	st.cancelRequested = true
	return st.status.clone(), nil
}

// IsCancelRequested is polled by the runner between files.
func (m *Manager) IsCancelRequested(userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state(userID).cancelRequested
}

// UpdateStatus mutates progress fields; meaningful only while Running but
// legal in any state.
func (m *Manager) UpdateStatus(userID uuid.UUID, update Update) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userID)
	if update.CurrentLocation != nil {
		st.status.CurrentLocation = *update.CurrentLocation
	}
	if update.FilesScanned != nil {
		st.status.FilesScanned = *update.FilesScanned
	}
	if update.FilesTotal != nil {
		st.status.FilesTotal = *update.FilesTotal
	}
	if update.CurrentFile != nil {
		st.status.CurrentFile = *update.CurrentFile
	}
	return st.status.clone()
}

// AppendError records a per-file or per-location failure. Errors accumulate
// until the next StartScan.
func (m *Manager) AppendError(userID uuid.UUID, message string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userID)
	st.status.Errors = append(st.status.Errors, message)
	return st.status.clone()
}

// FinishScan transitions Running→Idle, clearing the in-flight markers but
// retaining counters and errors for the final snapshot.
func (m *Manager) FinishScan(userID uuid.UUID) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userID)
	st.cancelRequested = false
	st.status.IsRunning = false
	st.status.CurrentLocation = ""
	st.status.CurrentFile = ""
	return st.status.clone()
}

// Reset clears a user's state entirely. Test hook.
func (m *Manager) Reset(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
