package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vgp_platform/internal/api/middleware"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
)

type CandidateHandler struct {
	candidates *service.CandidateService
	sessions   *service.SessionService
	consent    *service.ConsentService
	matches    *service.MatchService
}

func NewCandidateHandler(
	candidates *service.CandidateService,
	sessions *service.SessionService,
	consent *service.ConsentService,
	matches *service.MatchService,
) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, sessions: sessions, consent: consent, matches: matches}
}

func (h *CandidateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create) // POST /api/v1/candidates

	r.Group(func(self chi.Router) {
		self.Use(middleware.Authenticator)
		self.Use(middleware.RequireSelf(security.RoleCandidate, "candidateID"))
		self.Get("/{candidateID}", h.get)
		self.Post("/{candidateID}/tracks", h.startTrack)
		self.Get("/{candidateID}/scores/{trackID}", h.latestScore)
		self.Get("/{candidateID}/matches", h.recommendedJobs)
		self.Post("/{candidateID}/share", h.share)
	})
}

func (h *CandidateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCandidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.candidates.Create(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusCreated, resp)
}

func (h *CandidateHandler) get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.candidates.Get(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, profile)
}

func (h *CandidateHandler) startTrack(w http.ResponseWriter, r *http.Request) {
	var req service.StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.sessions.Start(r.Context(), chi.URLParam(r, "candidateID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusCreated, resp)
}

func (h *CandidateHandler) latestScore(w http.ResponseWriter, r *http.Request) {
	report, err := h.sessions.LatestReport(r.Context(), chi.URLParam(r, "candidateID"), chi.URLParam(r, "trackID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, report)
}

func (h *CandidateHandler) recommendedJobs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.matches.RecommendedJobs(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, resp)
}

func (h *CandidateHandler) share(w http.ResponseWriter, r *http.Request) {
	var req service.ShareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.consent.Grant(r.Context(), chi.URLParam(r, "candidateID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, resp)
}
