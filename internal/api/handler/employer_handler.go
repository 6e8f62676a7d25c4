package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vgp_platform/internal/api/middleware"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
)

type EmployerHandler struct {
	employers *service.EmployerService
	matches   *service.MatchService
}

func NewEmployerHandler(employers *service.EmployerService, matches *service.MatchService) *EmployerHandler {
	return &EmployerHandler{employers: employers, matches: matches}
}

func (h *EmployerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create) // POST /api/v1/employers

	r.Group(func(self chi.Router) {
		self.Use(middleware.Authenticator)
		self.Use(middleware.RequireSelf(security.RoleEmployer, "employerID"))
		self.Post("/{employerID}/jobs", h.upsertJob)
		self.Get("/{employerID}/jobs/{jobID}/eligible", h.eligible)
	})
}

func (h *EmployerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEmployerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.employers.Create(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusCreated, resp)
}

func (h *EmployerHandler) upsertJob(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.employers.UpsertJob(r.Context(), chi.URLParam(r, "employerID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, resp)
}

func (h *EmployerHandler) eligible(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matches.EligibleCandidates(r.Context(), chi.URLParam(r, "employerID"), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, resp)
}
