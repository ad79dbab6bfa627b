package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evently/evently/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CreateEvent handles event creation
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	var req domain.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	event, err := h.eventService.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Event created",
		"event":   event,
	})
}

// GetEvent handles fetching a single event
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID", "INVALID_INPUT")
		return
	}

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListEvents handles listing events
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	events, err := h.eventService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// UpdateEvent handles partial event updates (owner only)
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID", "INVALID_INPUT")
		return
	}

	var patch domain.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	event, err := h.eventService.Update(r.Context(), id, claims.UserID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Event updated",
		"event":   event,
	})
}

// DeleteEvent handles event deletion (owner only)
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID", "INVALID_INPUT")
		return
	}

	if err := h.eventService.Delete(r.Context(), id, claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Event deleted",
	})
}

// RSVPEvent handles RSVPing to an event
func (h *Handlers) RSVPEvent(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID", "INVALID_INPUT")
		return
	}

	rsvp, err := h.eventService.RSVP(r.Context(), id, claims.UserID)
	if err != nil {
		// Repeated RSVPs succeed idempotently rather than erroring.
		if errors.Is(err, domain.ErrAlreadyRSVPed) {
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "You have already RSVPed to this event",
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "RSVP successful. Confirmation email sent.",
		"rsvp":    rsvp,
	})
}
