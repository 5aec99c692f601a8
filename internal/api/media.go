package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/httputil"
	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/repository"
)

func queryBool(r *http.Request, name string) *bool {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	stats, err := s.mediaRepo.Stats(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	filter := repository.ShowFilter{
		IsAnime:   queryBool(r, "is_anime"),
		HasIssues: queryBool(r, "has_issues"),
		Search:    r.URL.Query().Get("search"),
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "page_size", 50),
	}

	shows, total, err := s.showRepo.ListFiltered(userID, filter)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shows":     shows,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (s *Server) handleGetShow(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid show id")
		return
	}

	show, err := s.showRepo.GetByID(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if show == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "show not found")
		return
	}

	seasons, err := s.showRepo.ListSeasons(show.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"show":    show,
		"seasons": seasons,
	})
}

// handleSetAnimeOverride pins a show's anime classification manually.
// Manual overrides are never changed by later scans.
func (s *Server) handleSetAnimeOverride(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid show id")
		return
	}

	var req struct {
		IsAnime bool `json:"is_anime"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	show, err := s.showRepo.GetByID(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if show == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "show not found")
		return
	}

	show.IsAnime = req.IsAnime
	src := models.AnimeSourceManual
	show.AnimeSource = &src
	if req.IsAnime {
		show.MediaType = models.MediaTypeAnime
	} else if show.MediaType == models.MediaTypeAnime {
		show.MediaType = models.MediaTypeTV
	}

	if err := s.showRepo.Update(show); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update show")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, show)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	filter := repository.FileFilter{
		HasIssues: queryBool(r, "has_issues"),
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "page_size", 50),
	}
	if raw := r.URL.Query().Get("show_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid show_id")
			return
		}
		filter.ShowID = &id
	}
	if raw := r.URL.Query().Get("season_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid season_id")
			return
		}
		filter.SeasonID = &id
	}

	files, total, err := s.mediaRepo.ListFiltered(userID, filter)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files":     files,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid file id")
		return
	}

	file, err := s.mediaRepo.GetByID(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if file == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}

	tracks, err := s.mediaRepo.ListTracks(file.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	file.AudioTracks = tracks

	httputil.WriteJSON(w, http.StatusOK, file)
}
