package api

import (
	"errors"
	"net/http"

	"github.com/voltgrid/voltgrid-core/internal/simulation"
)

// handleEnergyStats returns the caller's latest energy snapshot.
// An owner with no published snapshot gets a null, not an error.
//
// GET /api/v1/stats/energy
func (s *Server) handleEnergyStats(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	snap, found, err := s.stats.Get(r.Context(), owner)
	if err != nil {
		s.logger.Error("reading snapshot failed", "owner_id", owner, "error", err)
		writeInternalError(w, "failed to read energy stats")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"stats": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": snap})
}

// tickResponse is the JSON shape of a completed manual tick.
type tickResponse struct {
	Devices    int   `json:"devices"`
	Owners     int   `json:"owners"`
	Published  int   `json:"published"`
	Failures   int   `json:"failures"`
	DurationMS int64 `json:"duration_ms"`
}

// handleTriggerTick runs one simulation pass on demand.
// A tick already in flight yields 409, never a queued second run.
//
// POST /api/v1/simulation/tick
func (s *Server) handleTriggerTick(w http.ResponseWriter, r *http.Request) {
	if s.ticker == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "simulation is not available")
		return
	}

	result, err := s.ticker.RunTick(r.Context())
	if err != nil {
		if errors.Is(err, simulation.ErrTickInProgress) {
			writeConflict(w, "a tick is already in progress")
			return
		}
		s.logger.Error("manual tick failed", "error", err)
		writeInternalError(w, "tick failed")
		return
	}

	writeJSON(w, http.StatusOK, tickResponse{
		Devices:    result.Devices,
		Owners:     result.Owners,
		Published:  result.Published,
		Failures:   result.Failures,
		DurationMS: result.Duration.Milliseconds(),
	})
}
