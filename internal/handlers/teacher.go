package handlers

import (
	"context"
	"net/http"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

func (h *APIHandler) HandleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.NewAssignment
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.service.CreateAssignment(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) HandleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, h.service.DeleteAssignment)
}

func (h *APIHandler) HandleSubmitGrade(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.GradeSubmission
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.service.SubmitGrade(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleByID runs an id-addressed operation that answers with no body.
func (h *APIHandler) handleByID(w http.ResponseWriter, r *http.Request, op func(context.Context, *models.User, int) error) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := op(r.Context(), user, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
