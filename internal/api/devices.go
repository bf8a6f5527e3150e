package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltgrid/voltgrid-core/internal/device"
)

// handleListDevices returns all devices belonging to the caller.
//
// GET /api/v1/devices
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	devices, err := s.devices.ListByOwner(r.Context(), owner)
	if err != nil {
		s.logger.Error("listing devices failed", "owner_id", owner, "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleCreateDevice creates a device for the caller.
//
// POST /api/v1/devices
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	var in device.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := device.NewFromInput(owner, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.devices.Create(r.Context(), d); err != nil {
		if errors.Is(err, device.ErrDeviceExists) {
			writeConflict(w, "device already exists")
			return
		}
		s.logger.Error("creating device failed", "owner_id", owner, "error", err)
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// handleGetDevice returns one of the caller's devices.
//
// GET /api/v1/devices/{id}
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	d, err := s.devices.GetByIDForOwner(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to fetch device")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleUpdateDevice applies a partial update to one of the caller's
// devices. The device kind is fixed at creation.
//
// PATCH /api/v1/devices/{id}
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var in device.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.devices.GetByIDForOwner(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to fetch device")
		return
	}

	if err := device.ApplyUpdate(d, in); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.devices.Update(r.Context(), d); err != nil {
		s.logger.Error("updating device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDevice removes one of the caller's devices.
//
// DELETE /api/v1/devices/{id}
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.devices.Delete(r.Context(), owner, id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("deleting device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
