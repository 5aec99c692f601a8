package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/httputil"
	"github.com/trackhound/trackhound/internal/models"
)

// validateLocationPath resolves the path (symlinks included) and requires
// it to be an existing directory under the configured media root. A
// symlink pointing outside the root is rejected.
func (s *Server) validateLocationPath(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("path is required")
	}
	cleaned := filepath.Clean(raw)
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("path must be absolute")
	}

	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return "", fmt.Errorf("path does not exist")
	}

	root, err := filepath.EvalSymlinks(s.config.MediaRoot)
	if err != nil {
		return "", fmt.Errorf("media root is not accessible")
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path must be under the media root")
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("path is not a directory")
	}
	return cleaned, nil
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	locations, err := s.locationRepo.ListByUser(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, locations)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Path      string           `json:"path"`
		Label     string           `json:"label"`
		MediaType models.MediaType `json:"media_type"`
		Enabled   *bool            `json:"enabled,omitempty"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if !req.MediaType.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be tv, movie, or anime")
		return
	}

	path, err := s.validateLocationPath(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_PATH", err.Error())
		return
	}

	existing, err := s.locationRepo.GetByPath(userID, path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if existing != nil {
		httputil.WriteError(w, http.StatusConflict, "DUPLICATE_PATH", "location already exists")
		return
	}

	if req.Label == "" {
		req.Label = filepath.Base(path)
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	loc := &models.ScanLocation{
		ID:        uuid.New(),
		UserID:    userID,
		Path:      path,
		Label:     req.Label,
		MediaType: req.MediaType,
		Enabled:   enabled,
	}
	if err := s.locationRepo.Create(loc); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create location")
		return
	}

	if s.fsWatcher != nil {
		s.fsWatcher.Refresh()
	}
	httputil.WriteJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid location id")
		return
	}

	loc, err := s.locationRepo.GetByID(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if loc == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "location not found")
		return
	}

	var req struct {
		Label     *string           `json:"label,omitempty"`
		MediaType *models.MediaType `json:"media_type,omitempty"`
		Enabled   *bool             `json:"enabled,omitempty"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	if req.Label != nil {
		loc.Label = *req.Label
	}
	if req.MediaType != nil {
		if !req.MediaType.Valid() {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be tv, movie, or anime")
			return
		}
		loc.MediaType = *req.MediaType
	}
	if req.Enabled != nil {
		loc.Enabled = *req.Enabled
	}

	if err := s.locationRepo.Update(loc); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update location")
		return
	}

	if s.fsWatcher != nil {
		s.fsWatcher.Refresh()
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid location id")
		return
	}

	deleted, err := s.locationRepo.Delete(userID, id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete location")
		return
	}
	if !deleted {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "location not found")
		return
	}

	if s.fsWatcher != nil {
		s.fsWatcher.Refresh()
	}
	httputil.WriteNoContent(w)
}

// handleBrowse lists subdirectories under a path so the UI can offer a
// directory picker. Confined to the media root.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = s.config.MediaRoot
	}

	validated, err := s.validateLocationPath(path)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_PATH", err.Error())
		return
	}

	entries, err := os.ReadDir(validated)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "cannot read directory")
		return
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, filepath.Join(validated, e.Name()))
		}
	}
	sort.Strings(dirs)

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"path":        validated,
		"directories": dirs,
	})
}
