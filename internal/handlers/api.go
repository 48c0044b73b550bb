package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/models"
)

type APIHandler struct {
	service *app.Service
}

func NewAPIHandler(service *app.Service) *APIHandler {
	return &APIHandler{
		service: service,
	}
}

// Register mounts every API route on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /api/v1/login", h.HandleLogin},
		{"POST /api/v1/logout", h.HandleLogout},
		{"GET /api/v1/news", h.HandleNews},
		{"GET /api/v1/dashboard", h.HandleDashboard},

		{"GET /api/v1/reports", h.HandleReports},
		{"POST /api/v1/users", h.HandleAddUser},
		{"PUT /api/v1/users/{id}", h.HandleUpdateUser},
		{"DELETE /api/v1/users/{id}", h.HandleDeleteUser},
		{"POST /api/v1/courses", h.HandleAddCourse},
		{"DELETE /api/v1/courses/{id}", h.HandleDeleteCourse},
		{"POST /api/v1/news", h.HandleAddNews},
		{"DELETE /api/v1/news/{id}", h.HandleDeleteNews},

		{"POST /api/v1/assignments", h.HandleCreateAssignment},
		{"DELETE /api/v1/assignments/{id}", h.HandleDeleteAssignment},
		{"PUT /api/v1/grades", h.HandleSubmitGrade},

		{"POST /api/v1/messages", h.HandleSendMessage},
		{"POST /api/v1/messages/{id}/read", h.HandleMarkMessageRead},
	}
	for _, route := range routes {
		mux.HandleFunc(route.pattern, instrument(route.pattern, h.guard(route.handler)))
	}
}

// guard rejects requests without the configured required headers.
func (h *APIHandler) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.service.ValidateHeaders(r.Header) {
			http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
			return
		}
		next(w, r)
	}
}

// withUser resolves the caller and passes it on together with the snapshot
// it was found in.
func (h *APIHandler) withUser(w http.ResponseWriter, r *http.Request) (*models.User, *models.Document, bool) {
	user, doc, err := h.service.CurrentUser(r)
	if err != nil {
		writeError(w, r, err)
		return nil, nil, false
	}
	return user, doc, true
}

func (h *APIHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNews is public, like the news section of the landing page.
func (h *APIHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"news": doc.News,
	})
}

func (h *APIHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, doc, ok := h.withUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(doc, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
