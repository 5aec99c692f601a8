// Package api exposes the REST and websocket surface.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/config"
	"github.com/trackhound/trackhound/internal/db"
	"github.com/trackhound/trackhound/internal/jobs"
	"github.com/trackhound/trackhound/internal/repository"
	"github.com/trackhound/trackhound/internal/scanstate"
	"github.com/trackhound/trackhound/internal/version"
	"github.com/trackhound/trackhound/internal/watcher"
)

type Server struct {
	config       *config.Config
	db           *db.DB
	issuer       *auth.TokenIssuer
	cipher       *auth.TokenCipher
	userRepo     *repository.UserRepository
	locationRepo *repository.LocationRepository
	showRepo     *repository.ShowRepository
	mediaRepo    *repository.MediaRepository
	settingsRepo *repository.SettingsRepository
	scanState    *scanstate.Manager
	jobQueue     *jobs.Queue
	fsWatcher    *watcher.Watcher
	wsHub        *WSHub
	httpServer   *http.Server
}

func NewServer(cfg *config.Config, database *db.DB, state *scanstate.Manager,
	queue *jobs.Queue, fsWatcher *watcher.Watcher,
) (*Server, error) {
	cipher, err := auth.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		db:           database,
		issuer:       auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		cipher:       cipher,
		userRepo:     repository.NewUserRepository(database.DB),
		locationRepo: repository.NewLocationRepository(database.DB),
		showRepo:     repository.NewShowRepository(database.DB),
		mediaRepo:    repository.NewMediaRepository(database.DB),
		settingsRepo: repository.NewSettingsRepository(database.DB),
		scanState:    state,
		jobQueue:     queue,
		fsWatcher:    fsWatcher,
		wsHub:        NewWSHub(),
	}
	return s, nil
}

// Hub exposes the websocket hub so the job layer can broadcast events.
func (s *Server) Hub() *WSHub { return s.wsHub }

func (s *Server) router() http.Handler {
	mw := auth.NewMiddleware(s.issuer)
	authHandler := auth.NewHandler(s.userRepo, auth.NewPlexAuth(s.config), s.issuer, s.cipher)

	r := chi.NewRouter()

	ver := version.Load().Version
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Router(mw))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)

			r.Get("/ws", s.handleWebSocket)

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", s.handleListLocations)
				r.Post("/", s.handleCreateLocation)
				r.Get("/browse", s.handleBrowse)
				r.Put("/{id}", s.handleUpdateLocation)
				r.Delete("/{id}", s.handleDeleteLocation)
			})

			r.Route("/scan", func(r chi.Router) {
				r.Post("/start", s.handleStartScan)
				r.Post("/cancel", s.handleCancelScan)
				r.Get("/status", s.handleScanStatus)
			})

			r.Get("/stats", s.handleStats)
			r.Route("/shows", func(r chi.Router) {
				r.Get("/", s.handleListShows)
				r.Get("/{id}", s.handleGetShow)
				r.Put("/{id}/anime", s.handleSetAnimeOverride)
			})
			r.Route("/files", func(r chi.Router) {
				r.Get("/", s.handleListFiles)
				r.Get("/{id}", s.handleGetFile)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", s.handleGetSettings)
				r.Put("/", s.handleUpdateSettings)
				r.Delete("/", s.handleResetSettings)
			})
		})
	})

	return s.securityHeaders(s.cors(r))
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(s.config.Port),
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Printf("API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.config.CORSOrigins))
	for _, o := range s.config.CORSOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

