// Package api serves the documentation library over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcdickinson/ferrisdoc/internal/db"
	"github.com/jcdickinson/ferrisdoc/internal/library"
)

// Library is the part of *library.Library the server uses.
type Library interface {
	Index(ctx context.Context, name, version string) (*library.IndexResult, error)
	Items(ctx context.Context, name, version string, q library.ItemQuery) ([]db.Item, error)
	Get(ctx context.Context, name, version, path string) (*library.Item, error)
	Status() ([]library.CrateStatus, error)
}

// Server is the HTTP front end of the library.
type Server struct {
	router chi.Router
	lib    Library
	log    *slog.Logger
}

func NewServer(lib Library, log *slog.Logger) *Server {
	s := &Server{lib: lib, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api/crates", func(r chi.Router) {
		r.Get("/", s.handleListCrates)
		r.Post("/{crate}/{version}", s.handleBuildCrate)
		r.Get("/{crate}/{version}/items", s.handleListItems)
	})

	// The item path may be empty for the crate root.
	r.Get("/docs/{crate}/{version}", s.handleDoc)
	r.Get("/docs/{crate}/{version}/{path}", s.handleDoc)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
