// Package server is the web control surface of the sampler: one page
// driving generation, sample selection, the step grid and the transport
// over a JSON API.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/engine"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/gen"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Config holds server configuration
type Config struct {
	Addr    string
	DevMode bool
}

// Server is the HTTP server
type Server struct {
	config    Config
	router    *chi.Mux
	templates *template.Template
	logger    *slog.Logger
	jobs      *JobManager
	eng       *engine.Engine
}

// New creates a new server around an engine and a generation client
func New(cfg Config, eng *engine.Engine, client *gen.Client) (*Server, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		templates: tmpl,
		logger:    logger,
		jobs:      NewJobManager(client, eng, logger),
		eng:       eng,
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	// Generation
	r.Post("/generate", s.handleGenerate)
	r.Get("/status/{id}", s.handleStatus)

	// Sample and waveform
	r.Get("/waveform", s.handleWaveform)
	r.Post("/sample/select", s.handleSelect)

	// Pattern and transport
	r.Get("/effects", s.handleEffects)
	r.Post("/pattern/toggle", s.handleToggle)
	r.Post("/pattern/randomize", s.handleRandomize)
	r.Post("/transport/play", s.handlePlay)
	r.Post("/transport/stop", s.handleStop)
	r.Post("/tempo", s.handleTempo)
	r.Get("/state", s.handleState)
	r.Get("/export", s.handleExport)
}

// Run starts the server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long for SSE status streams
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		s.logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	s.logger.Info("server starting", slog.String("addr", s.config.Addr))
	fmt.Printf("\n  Sampler running at: http://localhost%s\n\n", s.config.Addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
