package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vgp_platform/internal/api/middleware"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common"
)

// BankHandler exposes the track catalog publicly and the question bank and
// trace log to admins.
type BankHandler struct {
	bank  *service.QuestionBankService
	trace *service.TraceService
}

func NewBankHandler(bank *service.QuestionBankService, trace *service.TraceService) *BankHandler {
	return &BankHandler{bank: bank, trace: trace}
}

func (h *BankHandler) RegisterTrackRoutes(r chi.Router) {
	r.Get("/", h.listTracks) // GET /api/v1/tracks
}

func (h *BankHandler) RegisterAdminRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/tracks", h.importBank)
	r.Post("/questions", h.importBank)
	r.Get("/item-bank-stats", h.stats)
	r.Get("/trace", h.latestTrace)
}

func (h *BankHandler) listTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.bank.ListTracks(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, tracks)
}

// importBank accepts a bank document with tracks, questions or both.
func (h *BankHandler) importBank(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8*maxBodyBytes))
	if err != nil {
		common.RespondWithDomainError(w, fmt.Errorf("failed to read body: %v: %w", err, common.ErrValidation))
		return
	}
	summary, err := h.bank.ImportRaw(r.Context(), raw)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusCreated, summary)
}

func (h *BankHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.bank.Stats(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, stats)
}

func (h *BankHandler) latestTrace(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.trace.Latest(r.Context(), limit)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, r, http.StatusOK, events)
}
