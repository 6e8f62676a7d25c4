package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"vgp_platform/internal/api/handler"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/common/security"
)

func NewRouter(svc *service.Services, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Looks for "Authorization: Bearer T"; routes that need a token add
	// middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(svc.Auth).RegisterRoutes)

		candidateHandler := handler.NewCandidateHandler(svc.Candidates, svc.Sessions, svc.Consent, svc.Matches)
		v1.Route("/candidates", candidateHandler.RegisterRoutes)

		v1.Route("/tests", handler.NewTestHandler(svc.Sessions).RegisterRoutes)

		v1.Route("/employers", handler.NewEmployerHandler(svc.Employers, svc.Matches).RegisterRoutes)

		bankHandler := handler.NewBankHandler(svc.Bank, svc.Trace)
		v1.Route("/tracks", bankHandler.RegisterTrackRoutes)
		v1.Route("/admin", bankHandler.RegisterAdminRoutes)
	})

	return r
}
