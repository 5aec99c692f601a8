package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/scanstate"
)

// commitBatchSize bounds transaction growth under long scans.
const commitBatchSize = 50

// Runner drives one user's scan end to end: discovery, per-file
// processing with cooperative cancellation, batched commits, and location
// statistics. The caller must have reserved the running slot via
// StartScan before invoking Run; Run always releases it.
type Runner struct {
	userID     uuid.UUID
	state      *scanstate.Manager
	scanner    *Scanner
	openStore  func() (Store, error)
	extensions []string

	// OnProgress, when set, is invoked after every state change with a
	// fresh snapshot. Used for websocket broadcasts.
	OnProgress func(scanstate.Status)
}

func NewRunner(userID uuid.UUID, state *scanstate.Manager, sc *Scanner,
	openStore func() (Store, error), extensions []string,
) *Runner {
	return &Runner{
		userID:     userID,
		state:      state,
		scanner:    sc,
		openStore:  openStore,
		extensions: extensions,
	}
}

func (r *Runner) notify(status scanstate.Status) {
	if r.OnProgress != nil {
		r.OnProgress(status)
	}
}

type discoveredFile struct {
	location *models.ScanLocation
	path     string
}

// Run executes the scan across the given locations. The slot is released
// on every exit path, including storage failure, so the user is never
// locked out of starting a new scan.
func (r *Runner) Run(ctx context.Context, locations []*models.ScanLocation) error {
	defer func() {
		r.notify(r.state.FinishScan(r.userID))
	}()

	files := r.discover(locations)

	total := len(files)
	r.notify(r.state.UpdateStatus(r.userID, scanstate.Update{FilesTotal: &total}))
	log.Printf("[scan] user=%s locations=%d files=%d", r.userID, len(locations), total)

	store, err := r.openStore()
	if err != nil {
		return fmt.Errorf("open scan transaction: %w", err)
	}

	cancelled := false
	sinceCommit := 0
	for i, f := range files {
		if r.state.IsCancelRequested(r.userID) {
			log.Printf("[scan] user=%s cancelled after %d/%d files", r.userID, i, total)
			cancelled = true
			break
		}

		scanned := i + 1
		r.notify(r.state.UpdateStatus(r.userID, scanstate.Update{
			CurrentLocation: &f.location.Path,
			CurrentFile:     &f.path,
			FilesScanned:    &scanned,
		}))

		if _, err := r.scanner.ProcessFile(ctx, store, f.location, f.path); err != nil {
			log.Printf("[scan] user=%s file %s: %v", r.userID, f.path, err)
			r.notify(r.state.AppendError(r.userID, fmt.Sprintf("%s: %v", f.path, err)))
			continue
		}

		sinceCommit++
		if sinceCommit >= commitBatchSize {
			if err := store.Commit(); err != nil {
				return fmt.Errorf("commit scan batch: %w", err)
			}
			store, err = r.openStore()
			if err != nil {
				return fmt.Errorf("reopen scan transaction: %w", err)
			}
			sinceCommit = 0
		}
	}

	if err := r.finalize(store, locations); err != nil {
		store.Rollback()
		return err
	}
	if err := store.Commit(); err != nil {
		return fmt.Errorf("commit scan: %w", err)
	}

	if cancelled {
		log.Printf("[scan] user=%s finished (cancelled)", r.userID)
	} else {
		log.Printf("[scan] user=%s finished", r.userID)
	}
	return nil
}

// discover walks every location up front so the total is known before
// processing starts. A broken location is logged and skipped; the rest
// still scan.
func (r *Runner) discover(locations []*models.ScanLocation) []discoveredFile {
	var files []discoveredFile
	for _, loc := range locations {
		r.notify(r.state.UpdateStatus(r.userID, scanstate.Update{CurrentLocation: &loc.Path}))

		paths, err := Discover(loc.Path, r.extensions)
		if err != nil {
			log.Printf("[scan] user=%s location %s: %v", r.userID, loc.Path, err)
			r.notify(r.state.AppendError(r.userID, fmt.Sprintf("location %s: %v", loc.Path, err)))
			continue
		}
		for _, p := range paths {
			files = append(files, discoveredFile{location: loc, path: p})
		}
	}
	return files
}

// finalize stamps each location and recomputes its cached file count from
// the rows actually persisted under its path.
func (r *Runner) finalize(store Store, locations []*models.ScanLocation) error {
	now := time.Now().UTC()
	for _, loc := range locations {
		count, err := store.CountFilesUnder(r.userID, loc.Path)
		if err != nil {
			return fmt.Errorf("count files for %s: %w", loc.Path, err)
		}
		if err := store.UpdateLocationStats(loc.ID, now, count); err != nil {
			return fmt.Errorf("update stats for %s: %w", loc.Path, err)
		}
	}
	return nil
}
