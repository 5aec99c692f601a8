// Package scheduler triggers periodic rescans of every user's enabled
// locations on a cron expression.
package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/trackhound/trackhound/internal/jobs"
	"github.com/trackhound/trackhound/internal/repository"
	"github.com/trackhound/trackhound/internal/scanstate"
)

type Scheduler struct {
	cron  *cron.Cron
	spec  string
	users *repository.UserRepository
	locs  *repository.LocationRepository
	state *scanstate.Manager
	queue *jobs.Queue
}

func New(spec string, users *repository.UserRepository, locs *repository.LocationRepository,
	state *scanstate.Manager, queue *jobs.Queue,
) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		spec:  spec,
		users: users,
		locs:  locs,
		state: state,
		queue: queue,
	}
}

func (s *Scheduler) Start() error {
	if s.spec == "" {
		log.Println("[scheduler] no schedule configured, periodic scans disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.runAll); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] periodic scans scheduled (%s)", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

// runAll enqueues a scan for every user with enabled locations. A user
// whose scan is already running is skipped, not queued behind it.
func (s *Scheduler) runAll() {
	users, err := s.users.List()
	if err != nil {
		log.Printf("[scheduler] list users: %v", err)
		return
	}

	for _, user := range users {
		locations, err := s.locs.ListEnabledByUser(user.ID)
		if err != nil {
			log.Printf("[scheduler] user %s locations: %v", user.ID, err)
			continue
		}
		if len(locations) == 0 {
			continue
		}

		if _, err := s.state.StartScan(user.ID); err != nil {
			log.Printf("[scheduler] user %s: scan already running, skipping", user.ID)
			continue
		}

		payload := jobs.ScanPayload{UserID: user.ID.String()}
		if _, err := s.queue.EnqueueUnique(jobs.TaskScanLocations, payload, "scan:"+user.ID.String()); err != nil {
			log.Printf("[scheduler] user %s enqueue: %v", user.ID, err)
			s.state.FinishScan(user.ID)
			continue
		}
		log.Printf("[scheduler] queued scan for user %s (%d locations)", user.ID, len(locations))
	}
}
