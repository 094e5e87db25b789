package server

import (
	"net/http"

	"JNChoral/core/auth"
	"JNChoral/core/content"

	"github.com/gorilla/mux"
)

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.content.PublishedEvents(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load events")
		return
	}
	writeSuccess(w, http.StatusOK, events)
}

func (h *Handler) ListAllEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.content.AllEvents(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load events")
		return
	}
	writeSuccess(w, http.StatusOK, events)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in content.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	ev, err := h.content.CreateEvent(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err, "Failed to create event")
		return
	}
	writeSuccess(w, http.StatusCreated, ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in content.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.UpdateEvent(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], in); err != nil {
		writeError(w, r, err, "Failed to update event")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.content.SetEventPublished(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], req.Published); err != nil {
		writeError(w, r, err, "Failed to update event")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteEvent(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "Failed to delete event")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
