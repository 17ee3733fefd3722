package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/roomlog/internal/observability"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
)

type Dependencies struct {
	Logger    zerolog.Logger
	Addr      string
	Ledger    *service.Ledger
	Validator *validator.Validate // optional; a default one is built
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	router     chi.Router
	ledger     *service.Ledger
	validate   *validator.Validate
}

func NewServer(d Dependencies) *Server {
	observability.RegisterMetrics()

	v := d.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}

	r := chi.NewRouter()
	s := &Server{
		logger:   d.Logger.With().Str("component", "httpapi").Logger(),
		router:   r,
		ledger:   d.Ledger,
		validate: v,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sign", s.handleSign)
		r.Post("/scan", s.handleScan)
		r.Get("/today", s.handleToday)

		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleAddEvent)
		r.Patch("/events/{id}", s.handleEditEvent)
		r.Delete("/events/{id}", s.handleDeleteEvent)

		r.Get("/rows", s.handleRows)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)

		r.Get("/people", s.handleListPeople)
		r.Post("/people", s.handleAddPerson)
		r.Get("/cards", s.handleListCards)
		r.Post("/cards", s.handleLinkCard)
		r.Delete("/cards/{cardID}", s.handleUnlinkCard)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
