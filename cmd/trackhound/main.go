package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trackhound/trackhound/internal/api"
	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/config"
	"github.com/trackhound/trackhound/internal/db"
	"github.com/trackhound/trackhound/internal/jobs"
	"github.com/trackhound/trackhound/internal/repository"
	"github.com/trackhound/trackhound/internal/scanstate"
	"github.com/trackhound/trackhound/internal/scheduler"
	"github.com/trackhound/trackhound/internal/version"
	"github.com/trackhound/trackhound/internal/watcher"
)

func main() {
	ver := version.Load()
	log.Printf("TrackHound %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cipher, err := auth.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("token cipher: %v", err)
	}

	userRepo := repository.NewUserRepository(database.DB)
	locationRepo := repository.NewLocationRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)

	scanState := scanstate.NewManager()
	queue := jobs.NewQueue(cfg.RedisAddr)

	var fsWatcher *watcher.Watcher
	if cfg.WatchEnabled {
		fsWatcher, err = watcher.New(locationRepo, scanState, queue)
		if err != nil {
			log.Fatalf("filesystem watcher: %v", err)
		}
	}

	srv, err := api.NewServer(cfg, database, scanState, queue, fsWatcher)
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	scanHandler := jobs.NewScanHandler(database.DB, cfg, scanState,
		userRepo, locationRepo, settingsRepo, cipher, srv.Hub())
	jobs.RegisterHandlers(queue, scanHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := queue.Start(ctx); err != nil {
		log.Fatalf("job queue: %v", err)
	}
	defer queue.Stop()

	sched := scheduler.New(cfg.ScanSchedule, userRepo, locationRepo, scanState, queue)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	if fsWatcher != nil {
		fsWatcher.Start()
		defer fsWatcher.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
