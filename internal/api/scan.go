package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/auth"
	"github.com/trackhound/trackhound/internal/httputil"
	"github.com/trackhound/trackhound/internal/jobs"
	"github.com/trackhound/trackhound/internal/scanstate"
)

// handleStartScan reserves the user's running slot synchronously, then
// queues the scan. Reserving before enqueueing means a duplicate request
// always gets an immediate conflict rather than a queued race.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		LocationIDs []string `json:"location_ids,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}

	// Validate the requested locations before touching scan state.
	for _, raw := range req.LocationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid location id: "+raw)
			return
		}
		loc, err := s.locationRepo.GetByID(userID, id)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
			return
		}
		if loc == nil {
			httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "location not found: "+raw)
			return
		}
	}
	if len(req.LocationIDs) == 0 {
		locations, err := s.locationRepo.ListEnabledByUser(userID)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
			return
		}
		if len(locations) == 0 {
			httputil.WriteError(w, http.StatusBadRequest, "NO_LOCATIONS", "no enabled scan locations")
			return
		}
	}

	status, err := s.scanState.StartScan(userID)
	if err == scanstate.ErrScanInProgress {
		httputil.WriteError(w, http.StatusConflict, "SCAN_RUNNING", "a scan is already in progress")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}

	payload := jobs.ScanPayload{UserID: userID.String(), LocationIDs: req.LocationIDs}
	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskScanLocations, payload, "scan:"+userID.String()); err != nil {
		s.scanState.FinishScan(userID)
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to queue scan")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, status)
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	status, err := s.scanState.CancelScan(userID)
	if err == scanstate.ErrNoScanRunning {
		httputil.WriteError(w, http.StatusConflict, "NO_SCAN", "no scan is currently running")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, s.scanState.GetStatus(userID))
}
