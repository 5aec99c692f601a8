// Package watcher monitors enabled scan locations for filesystem changes
// and queues a rescan when files appear, change, or disappear.
package watcher

import (
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/jobs"
	"github.com/trackhound/trackhound/internal/repository"
	"github.com/trackhound/trackhound/internal/scanstate"
)

// debounceWindow collects a burst of events (a file copy emits many) into
// one scan request.
const debounceWindow = 30 * time.Second

type watchTarget struct {
	userID     uuid.UUID
	locationID uuid.UUID
}

// Watcher maps filesystem events back to the scan location that owns the
// path and enqueues a location-scoped rescan, debounced per location.
type Watcher struct {
	locs  *repository.LocationRepository
	state *scanstate.Manager
	queue *jobs.Queue

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watched  map[string]watchTarget // watched dir → owning location
	debounce map[uuid.UUID]*time.Timer
	stop     chan struct{}
}

func New(locs *repository.LocationRepository, state *scanstate.Manager, queue *jobs.Queue) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		locs:     locs,
		state:    state,
		queue:    queue,
		watcher:  fw,
		watched:  make(map[string]watchTarget),
		debounce: make(map[uuid.UUID]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go w.eventLoop()
	w.Refresh()
	log.Println("[watcher] filesystem watcher started")
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

// Refresh reconciles the watched directory set against the enabled
// locations. Called at startup and whenever locations change.
func (w *Watcher) Refresh() {
	locations, err := w.locs.ListEnabled()
	if err != nil {
		log.Printf("[watcher] error loading locations: %v", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	desired := make(map[string]watchTarget)
	for _, loc := range locations {
		target := watchTarget{userID: loc.UserID, locationID: loc.ID}
		desired[loc.Path] = target
		// fsnotify does not recurse; register every subdirectory.
		filepath.WalkDir(loc.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != loc.Path {
					return filepath.SkipDir
				}
				desired[path] = target
			}
			return nil
		})
	}

	for p := range w.watched {
		if _, ok := desired[p]; !ok {
			w.watcher.Remove(p)
			delete(w.watched, p)
		}
	}
	for p, target := range desired {
		if _, ok := w.watched[p]; !ok {
			if err := w.watcher.Add(p); err != nil {
				log.Printf("[watcher] cannot watch %s: %v", p, err)
				continue
			}
			w.watched[p] = target
		}
	}
	log.Printf("[watcher] watching %d directories across %d locations", len(w.watched), len(locations))
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	target, ok := w.lookupTarget(event.Name)
	if !ok {
		return
	}

	// A new directory needs its own watch before files land in it.
	if event.Op&fsnotify.Create != 0 {
		if err := w.watcher.Add(event.Name); err == nil {
			w.watched[event.Name] = target
		}
	}

	w.scheduleScan(target)
}

// lookupTarget finds the location owning a path via its deepest watched
// ancestor. Caller holds the lock.
func (w *Watcher) lookupTarget(path string) (watchTarget, bool) {
	dir := filepath.Dir(path)
	for {
		if target, ok := w.watched[dir]; ok {
			return target, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return watchTarget{}, false
		}
		dir = parent
	}
}

// scheduleScan (re)arms the location's debounce timer. Caller holds the
// lock.
func (w *Watcher) scheduleScan(target watchTarget) {
	if timer, ok := w.debounce[target.locationID]; ok {
		timer.Reset(debounceWindow)
		return
	}
	w.debounce[target.locationID] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.debounce, target.locationID)
		w.mu.Unlock()
		w.fireScan(target)
	})
}

func (w *Watcher) fireScan(target watchTarget) {
	if _, err := w.state.StartScan(target.userID); err != nil {
		log.Printf("[watcher] user %s: scan already running, change will be picked up later", target.userID)
		return
	}

	payload := jobs.ScanPayload{
		UserID:      target.userID.String(),
		LocationIDs: []string{target.locationID.String()},
	}
	if _, err := w.queue.EnqueueUnique(jobs.TaskScanLocations, payload, "scan:"+target.userID.String()); err != nil {
		log.Printf("[watcher] enqueue scan: %v", err)
		w.state.FinishScan(target.userID)
		return
	}
	log.Printf("[watcher] queued rescan of location %s for user %s", target.locationID, target.userID)
}
