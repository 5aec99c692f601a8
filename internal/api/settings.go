package api

import (
	"net/http"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/httputil"
	"github.com/trackhound/trackhound/internal/preferences"
	"github.com/trackhound/trackhound/internal/repository"
)

type settingsPayload struct {
	AudioPreferences preferences.AudioPreferences      `json:"audio_preferences"`
	AnimeDetection   repository.AnimeDetectionSettings `json:"anime_detection"`
	FileExtensions   []string                          `json:"file_extensions"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	prefs, err := s.settingsRepo.AudioPreferences(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	detection, err := s.settingsRepo.AnimeDetection(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	extensions, err := s.settingsRepo.FileExtensions(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, settingsPayload{
		AudioPreferences: prefs,
		AnimeDetection:   detection,
		FileExtensions:   extensions,
	})
}

// handleUpdateSettings replaces whichever sections the request includes.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		AudioPreferences *preferences.AudioPreferences      `json:"audio_preferences,omitempty"`
		AnimeDetection   *repository.AnimeDetectionSettings `json:"anime_detection,omitempty"`
		FileExtensions   []string                           `json:"file_extensions,omitempty"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	if req.AudioPreferences != nil {
		if err := s.settingsRepo.SetAudioPreferences(userID, *req.AudioPreferences); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to save preferences")
			return
		}
	}
	if req.AnimeDetection != nil {
		if err := s.settingsRepo.SetAnimeDetection(userID, *req.AnimeDetection); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to save anime detection settings")
			return
		}
	}
	if len(req.FileExtensions) > 0 {
		if err := s.settingsRepo.SetFileExtensions(userID, req.FileExtensions); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to save file extensions")
			return
		}
	}

	s.handleGetSettings(w, r)
}

// handleResetSettings drops every stored setting; reads fall back to
// defaults afterwards.
func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if err := s.settingsRepo.DeleteAll(userID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to reset settings")
		return
	}
	httputil.WriteNoContent(w)
}
