package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"billing-service/internal/config"
	"billing-service/internal/usecase"
)

// Server hosts the webhook endpoint plus the dashboard API.
type Server struct {
	reconcileUC usecase.ReconcileUseCase
	planUC      usecase.PlanUseCase
	billingUC   usecase.BillingUseCase

	auth          *AuthManager
	adminPassword string
	webhookSecret string // empty accepts unsigned payloads

	httpServer *http.Server
	log        *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	reconcileUC usecase.ReconcileUseCase,
	planUC usecase.PlanUseCase,
	billingUC usecase.BillingUseCase,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconcileUC:   reconcileUC,
		planUC:        planUC,
		billingUC:     billingUC,
		auth:          NewAuthManager(cfg.Admin),
		adminPassword: cfg.Admin.Password,
		webhookSecret: cfg.Provider.WebhookSecret,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger,
	}
}

// Router builds the full route tree. Exposed separately so tests can drive it
// with httptest without binding a port.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/webhook", s.handleWebhook)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Get("/plans", s.handlePlansList)
		r.Get("/plans/{id}", s.handlePlanGet)
		r.Get("/users/{id}/billing", s.handleUserBilling)
		r.Get("/users/{id}/paid", s.handleUserPaid)
		r.Get("/payments/{id}", s.handlePaymentGet)
	})

	return r
}

func (s *Server) Start() error {
	s.httpServer.Handler = s.Router()
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// sessionMiddleware gates the dashboard API behind the JWT session cookie.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
