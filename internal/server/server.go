// Package server exposes a canvas controller over HTTP so a browser or any
// other display can draw the merged view and send paint actions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the ledger is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the canvas API.
type Server struct {
	ctrl   *canvas.Controller
	pinger Pinger
	logger *log.Logger
	server *http.Server
}

// New creates a server for ctrl. pinger backs /healthz.
func New(ctrl *canvas.Controller, pinger Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		ctrl:   ctrl,
		pinger: pinger,
		logger: logger,
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the canvas API on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/api/v1/canvas", s.handleCanvas)
	r.Get("/api/v1/cells/{index}", s.handleCell)
	r.Get("/api/v1/events", s.handleEvents)
	r.Post("/api/v1/paint", s.handlePaint)
	r.Post("/api/v1/pick", s.handlePick)
	r.Post("/api/v1/pointer", s.handlePointer)
	r.Post("/api/v1/refresh", s.handleRefresh)
	r.Put("/api/v1/settings", s.handleSettings)
}

// Start starts the HTTP server on addr in the background.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("[Server] HTTP server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps controller errors onto HTTP status codes and stable codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, canvas.ErrNotReady):
		return http.StatusPreconditionFailed, "not_ready"
	case errors.Is(err, canvas.ErrCellOccupied),
		errors.Is(err, canvas.ErrAlreadyPending),
		errors.Is(err, canvas.ErrAlreadyPainted):
		return http.StatusConflict, "cell_occupied"
	case errors.Is(err, canvas.ErrOutOfRange):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, canvas.ErrInvalidColor):
		return http.StatusBadRequest, "invalid_color"
	case errors.Is(err, canvas.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, canvas.ErrSnapshotUnavailable), errors.Is(err, canvas.ErrDecode):
		return http.StatusServiceUnavailable, "snapshot_unavailable"
	case errors.Is(err, canvas.ErrClosed):
		return http.StatusServiceUnavailable, "closed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
