package handlers

import (
	"fmt"
	"net/http"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

func (h *APIHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	user, doc, ok := h.withUser(w, r)
	if !ok {
		return
	}
	if user.Type != models.RoleAdmin {
		writeError(w, r, fmt.Errorf("%w: reports are for administrators", models.ErrForbidden))
		return
	}
	writeJSON(w, http.StatusOK, h.service.Report(doc))
}

func (h *APIHandler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.NewUser
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.service.AddUser(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.UserUpdate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.service.UpdateUser(r.Context(), user, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, h.service.DeleteUser)
}

func (h *APIHandler) HandleAddCourse(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.NewCourse
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.service.AddCourse(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, h.service.DeleteCourse)
}

func (h *APIHandler) HandleAddNews(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.NewNews
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.service.AddNews(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) HandleDeleteNews(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, h.service.DeleteNews)
}
