package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/config"
	"github.com/trackhound/trackhound/internal/ffmpeg"
	"github.com/trackhound/trackhound/internal/metadata"
	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/repository"
	"github.com/trackhound/trackhound/internal/scanner"
	"github.com/trackhound/trackhound/internal/scanstate"
)

// ScanHandler executes a queued scan. The running slot was reserved by
// whoever enqueued the task; the runner releases it on every exit path.
type ScanHandler struct {
	db       *sql.DB
	cfg      *config.Config
	state    *scanstate.Manager
	users    *repository.UserRepository
	locs     *repository.LocationRepository
	settings *repository.SettingsRepository
	cipher   *auth.TokenCipher
	notifier EventNotifier
}

func NewScanHandler(db *sql.DB, cfg *config.Config, state *scanstate.Manager,
	users *repository.UserRepository, locs *repository.LocationRepository,
	settings *repository.SettingsRepository, cipher *auth.TokenCipher,
	notifier EventNotifier,
) *ScanHandler {
	return &ScanHandler{
		db: db, cfg: cfg, state: state,
		users: users, locs: locs, settings: settings,
		cipher: cipher, notifier: notifier,
	}
}

func (h *ScanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	locations, err := h.resolveLocations(userID, p.LocationIDs)
	if err != nil {
		h.state.FinishScan(userID)
		return err
	}
	if len(locations) == 0 {
		log.Printf("Job: scan for user %s has no enabled locations", userID)
		h.state.FinishScan(userID)
		return nil
	}

	runner, err := h.buildRunner(userID)
	if err != nil {
		h.state.FinishScan(userID)
		return err
	}

	if h.notifier != nil {
		h.notifier.Broadcast("scan:start", map[string]interface{}{
			"user_id":   p.UserID,
			"locations": len(locations),
		})

		var lastBroadcast time.Time
		runner.OnProgress = func(status scanstate.Status) {
			now := time.Now()
			if now.Sub(lastBroadcast) < 500*time.Millisecond && status.IsRunning {
				return
			}
			lastBroadcast = now
			h.notifier.Broadcast("scan:progress", map[string]interface{}{
				"user_id": p.UserID,
				"status":  status,
			})
		}
	}

	err = runner.Run(ctx, locations)

	if h.notifier != nil {
		final := h.state.GetStatus(userID)
		h.notifier.Broadcast("scan:complete", map[string]interface{}{
			"user_id":       p.UserID,
			"files_scanned": final.FilesScanned,
			"errors":        len(final.Errors),
		})
	}
	return err
}

func (h *ScanHandler) resolveLocations(userID uuid.UUID, ids []string) ([]*models.ScanLocation, error) {
	if len(ids) == 0 {
		return h.locs.ListEnabledByUser(userID)
	}
	var locations []*models.ScanLocation
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse location id %q: %w", raw, err)
		}
		loc, err := h.locs.GetByID(userID, id)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, fmt.Errorf("location %s not found", id)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// buildRunner assembles the per-scan pipeline: user settings, the media
// server matcher when a server is linked, and the transactional store.
func (h *ScanHandler) buildRunner(userID uuid.UUID) (*scanner.Runner, error) {
	prefs, err := h.settings.AudioPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("load audio preferences: %w", err)
	}
	animeDetection, err := h.settings.AnimeDetection(userID)
	if err != nil {
		return nil, fmt.Errorf("load anime detection settings: %w", err)
	}
	extensions, err := h.settings.FileExtensions(userID)
	if err != nil {
		return nil, fmt.Errorf("load file extensions: %w", err)
	}

	var matcher *metadata.Matcher
	if h.cfg.PlexServerURL != "" {
		user, err := h.users.GetByID(userID)
		if err != nil {
			return nil, err
		}
		if user != nil && user.PlexToken != "" {
			token, err := h.cipher.Decrypt(user.PlexToken)
			if err != nil {
				log.Printf("Job: user %s token decrypt failed, scanning without server matches: %v", userID, err)
			} else {
				matcher = metadata.NewMatcher(metadata.NewClient(h.cfg, token))
			}
		}
	}

	sc := scanner.NewScanner(
		userID,
		ffmpeg.NewAnalyzer(h.cfg.FFprobePath),
		ffmpeg.NewRemuxer(h.cfg.MKVPropeditPath),
		matcher,
		prefs,
		animeDetection,
	)

	openStore := func() (scanner.Store, error) {
		return scanner.NewSQLStore(h.db)
	}

	return scanner.NewRunner(userID, h.state, sc, openStore, extensions), nil
}
