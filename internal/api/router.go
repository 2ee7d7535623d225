package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bloodLink/internal/api/handlers/http/admin"
	"bloodLink/internal/api/handlers/http/emergency"
	"bloodLink/internal/api/handlers/http/public"
	"bloodLink/internal/api/handlers/http/system"
	"bloodLink/internal/config"
	"bloodLink/internal/metrics"
	"bloodLink/internal/middleware"
	"bloodLink/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

type Handlers struct {
	Public    *public.Handler
	Emergency *emergency.Handler
	Admin     *admin.Handler
	System    *system.Handler
}

// NewServer builds the handlers over svc. ctx bounds the rate limiter cleanup loops.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, svc *service.Service, m *metrics.Metrics, checks map[string]system.Pinger) *Server {
	handlers := Handlers{
		Public:    public.NewHandler(logger, svc.DonorService, svc.RequestService),
		Emergency: emergency.NewHandler(logger, svc.EmergencyService),
		Admin:     admin.NewHandler(logger, svc.AdminService),
		System:    system.NewHandler(logger, checks),
	}

	return &Server{
		logger: logger,
		router: InitRouter(ctx, cfg, handlers, m, logger),
		cfg:    *cfg,
	}
}

func (s *Server) Handler() http.Handler { return s.router }

func InitRouter(ctx context.Context, cfg *config.Config, h Handlers, m *metrics.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(m.Middleware)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Session)

		// ADMIN
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			ar.Use(middleware.Limit(ctx, 2, 5, 10*time.Minute, logger))

			ar.Get("/stats", h.Admin.AdminStats)
			ar.Get("/requests", h.Admin.AdminRequestList)
			ar.Put("/requests/{id}/status", h.Admin.AdminRequestStatus)
		})

		// PUBLIC
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.Limit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst, 5*time.Minute, logger))

			pr.Route("/donors", func(dr chi.Router) {
				dr.Post("/", h.Public.DonorRegister)
				dr.Post("/search", h.Public.DonorSearch)
				dr.Get("/{id}", h.Public.DonorGet)
				dr.Patch("/{id}", h.Public.DonorUpdate)
			})

			pr.Route("/requests", func(rr chi.Router) {
				rr.Get("/", h.Public.RequestList)
				rr.Get("/{id}", h.Public.RequestGet)
				rr.With(middleware.RequireSession).Post("/", h.Public.RequestCreate)
				rr.With(middleware.RequireSession).Post("/{id}/responses", h.Public.RequestRespond)
			})

			pr.Route("/emergency", func(er chi.Router) {
				er.Use(middleware.RequireSession)

				er.Post("/", h.Emergency.DraftStart)
				er.Route("/{id}", func(dr chi.Router) {
					dr.Get("/", h.Emergency.DraftGet)
					dr.Patch("/", h.Emergency.DraftUpdate)
					dr.Delete("/", h.Emergency.DraftAbandon)
					dr.Post("/next", h.Emergency.DraftNext)
					dr.Post("/back", h.Emergency.DraftBack)
					dr.Post("/submit", h.Emergency.DraftSubmit)
				})
			})
		})

		// SYSTEM
		api.Get("/health", h.System.SystemHealth)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
