package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vgp_platform/internal/api/middleware"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
)

// TestHandler serves an in-progress test session to the candidate who owns it.
type TestHandler struct {
	sessions *service.SessionService
}

func NewTestHandler(sessions *service.SessionService) *TestHandler {
	return &TestHandler{sessions: sessions}
}

func (h *TestHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.RequireRole(security.RoleCandidate))
	r.Get("/{sessionID}/next", h.next)
	r.Post("/{sessionID}/responses", h.record)
	r.Post("/{sessionID}/submit", h.submit)
}

func (h *TestHandler) next(w http.ResponseWriter, r *http.Request) {
	candidateID, _ := middleware.GetUserIDFromContext(r.Context())
	resp, err := h.sessions.NextQuestion(r.Context(), candidateID, chi.URLParam(r, "sessionID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, resp)
}

func (h *TestHandler) record(w http.ResponseWriter, r *http.Request) {
	candidateID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.RecordResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ack, err := h.sessions.RecordResponse(r.Context(), candidateID, chi.URLParam(r, "sessionID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusCreated, ack)
}

func (h *TestHandler) submit(w http.ResponseWriter, r *http.Request) {
	candidateID, _ := middleware.GetUserIDFromContext(r.Context())
	report, err := h.sessions.Finalize(r.Context(), candidateID, chi.URLParam(r, "sessionID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, report)
}
