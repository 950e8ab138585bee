// Package httpapi is the JSON/HTTP adapter: routing, request parsing and
// response rendering over the application façade. Paths outside /api serve
// the static front-end.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dogpark/server/internal/app"
)

// Server represents the REST API server.
type Server struct {
	app    *app.Application
	router *mux.Router
	log    *zap.Logger
}

// NewServer creates the API server. wwwRoot may be empty, which disables
// static file serving.
func NewServer(application *app.Application, wwwRoot string, log *zap.Logger) *Server {
	s := &Server{
		app:    application,
		router: mux.NewRouter(),
		log:    log,
	}
	s.setupRoutes(wwwRoot)
	return s
}

func (s *Server) setupRoutes(wwwRoot string) {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/maps", s.handleMaps)
	api.HandleFunc("/maps/{id}", s.handleMap)
	api.HandleFunc("/game/join", s.handleJoin)
	api.HandleFunc("/game/players", s.handlePlayers)
	api.HandleFunc("/game/state", s.handleState)
	api.HandleFunc("/game/player/action", s.handleAction)
	api.HandleFunc("/game/tick", s.handleTick)
	api.HandleFunc("/game/records", s.handleRecords)

	// Anything else under /api is a bad request, not a file lookup.
	s.router.PathPrefix("/api/").HandlerFunc(s.handleBadRequest)

	if wwwRoot != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(wwwRoot)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleBadRequest(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusBadRequest, codeBadRequest, "Bad request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
