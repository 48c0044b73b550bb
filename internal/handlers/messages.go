package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

func (h *APIHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.withUser(w, r)
	if !ok {
		return
	}
	var in models.NewMessage
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sent, err := h.service.SendMessage(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sent)
}

func (h *APIHandler) HandleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, h.service.MarkMessageRead)
}
