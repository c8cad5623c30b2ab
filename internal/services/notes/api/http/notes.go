package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/notekeep/internal/platform/httpx"
	"github.com/louisbranch/notekeep/internal/services/notes/note"
)

type noteResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Note    note.Note `json:"note"`
}

type searchResponse struct {
	Success bool        `json:"success"`
	Results []note.Note `json:"results"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, nonNil(notes))
}

func (h *Handler) searchNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, searchResponse{Success: true, Results: nonNil(notes)})
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	id, err := note.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.notes.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, noteResponse{Success: true, Note: n})
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	var input note.Input
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.notes.Create(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, n)
}

func (h *Handler) replaceNote(w http.ResponseWriter, r *http.Request) {
	id, err := note.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var input note.Input
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.notes.Replace(r.Context(), id, input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) patchNote(w http.ResponseWriter, r *http.Request) {
	id, err := note.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var patch note.Patch
	if err := httpx.DecodeJSON(w, r, &patch); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.notes.Patch(r.Context(), id, patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, noteResponse{Success: true, Message: "Note updated", Note: n})
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := note.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.notes.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Note deleted"})
}

func nonNil(notes []note.Note) []note.Note {
	if notes == nil {
		return []note.Note{}
	}
	return notes
}
