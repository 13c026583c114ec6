package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/destinations/internal/destination"
	"github.com/neexbeast/destinations/internal/store"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	state      DestinationState
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(state DestinationState, dispatcher Dispatcher, log *slog.Logger) *Handlers {
	return &Handlers{
		state:      state,
		dispatcher: dispatcher,
		log:        log,
	}
}

type listResponse struct {
	Destinations []destination.Destination `json:"destinations"`
	SearchFilter string                    `json:"searchFilter"`
}

type messageResponse struct {
	Message     string                   `json:"message"`
	Destination *destination.Destination `json:"destination,omitempty"`
}

type searchRequest struct {
	Search string `json:"search"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDispatchError maps a failed remote operation to a response.
// A 404 from the remote API is passed through; anything else is a bad gateway.
func (h *Handlers) writeDispatchError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var statusErr *destination.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}

// decodeDraft reads a draft from the request body, starting from the add-form defaults.
func decodeDraft(r *http.Request) (destination.Destination, error) {
	draft := destination.NewDraft()
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		return destination.Destination{}, errors.Join(destination.ErrInvalidDraft, err)
	}
	return draft.Submission()
}

func (h *Handlers) filteredList() listResponse {
	return listResponse{
		Destinations: h.state.Filtered(),
		SearchFilter: h.state.SearchFilter(),
	}
}

// GetState handles GET /api/v1/state.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// SetSearch handles PUT /api/v1/search.
func (h *Handlers) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search request")
		return
	}
	h.state.SetSearchFilter(req.Search)
	writeJSON(w, http.StatusOK, h.filteredList())
}

// ListDestinations handles GET /api/v1/destinations.
// A search query parameter replaces the search filter before the view is read.
func (h *Handlers) ListDestinations(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query(); q.Has("search") {
		h.state.SetSearchFilter(q.Get("search"))
	}
	writeJSON(w, http.StatusOK, h.filteredList())
}

// RefreshDestinations handles POST /api/v1/destinations/refresh.
func (h *Handlers) RefreshDestinations(w http.ResponseWriter, r *http.Request) {
	if err := h.dispatcher.Do(r.Context(), store.FetchAll()); err != nil {
		h.log.Error("refresh failed", "err", err)
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.filteredList())
}

// GetDestination handles GET /api/v1/destinations/{id}.
func (h *Handlers) GetDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.dispatcher.Do(r.Context(), store.FetchByID(id)); err != nil {
		h.log.Error("fetch by id failed", "id", id, "err", err)
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state.Selected())
}

// CreateDestination handles POST /api/v1/destinations.
func (h *Handlers) CreateDestination(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.Do(r.Context(), store.Create(d)); err != nil {
		h.log.Error("create failed", "name", d.Name, "err", err)
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Destination added successfully!"})
}

// UpdateDestination handles PUT /api/v1/destinations/{id}.
// On success the destination is fetched again so the response reflects the server's copy.
func (h *Handlers) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.Do(r.Context(), store.Update(id, d)); err != nil {
		h.log.Error("update failed", "id", id, "err", err)
		h.writeDispatchError(w, err)
		return
	}

	if err := h.dispatcher.Do(r.Context(), store.FetchByID(id)); err != nil {
		h.log.Warn("reload after update failed", "id", id, "err", err)
		h.writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message:     "Destination updated successfully!",
		Destination: h.state.Selected(),
	})
}

// DeleteDestination handles DELETE /api/v1/destinations/{id}.
func (h *Handlers) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.dispatcher.Do(r.Context(), store.Delete(id)); err != nil {
		h.log.Error("delete failed", "id", id, "err", err)
		h.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Destination Deleted Successfully."})
}

// HealthHandlerFunc returns an http.HandlerFunc reporting that the gateway is up.
// It does not call the remote API.
func HealthHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
