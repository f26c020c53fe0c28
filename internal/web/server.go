// Package web serves the browser UI of the lunch menu finder and generator.
// Pages are rendered on the server; each page load starts a fresh session.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// HealthFunc reports extra fields for /healthz. It may be nil.
type HealthFunc func() map[string]any

// Server is the browser UI server.
type Server struct {
	cfg        *config.Config
	app        *app.App
	sessions   *sessionStore
	pages      *pageSet
	health     HealthFunc
	log        logrus.FieldLogger
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates the UI server for a.
func NewServer(cfg *config.Config, a *app.App, health HealthFunc) (*Server, error) {
	sessions, err := newSessionStore(a, cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		app:      a,
		sessions: sessions,
		pages:    pages,
		health:   health,
		log:      logrus.WithField("component", "web"),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	origins := append([]string{"http://localhost:*", "http://127.0.0.1:*"}, s.cfg.AllowedOrigins...)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.handleFinderPage)
	r.Post("/find", s.handleFind)

	r.Route("/generator", func(r chi.Router) {
		r.Get("/", s.handleGeneratorPage)
		r.Post("/scrape", s.handleScrape)
		r.Post("/calendar", s.handleCalendar)
		r.Post("/pdf", s.handlePDF)
		r.Post("/email", s.handleEmail)
		r.Post("/new", s.handleNewMenu)
	})

	r.Get("/state", s.handleState)
	r.Get("/about", s.handleInfoPage("about"))
	r.Get("/privacy", s.handleInfoPage("privacy"))

	return r
}

// Handler returns the HTTP handler of the UI.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed once Shutdown has been called, even if Shutdown ran
// first.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("web UI listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request served")
		})
	}
}
