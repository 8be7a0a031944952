// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/simulation"
	"github.com/okian/matchday/pkg/metrics"
)

// DefaultMaxTableLimit caps ?limit on standings when no option overrides it.
const DefaultMaxTableLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ClubDependencies
	MatchDependencies
	CompetitionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	clubsHandler       *ClubsHandler
	matchesHandler     *MatchesHandler
	competitionHandler *CompetitionsHandler
	metrics            *metrics.Manager
}

// Option configures a Server.
type Option func(*settings)

type settings struct {
	maxTableLimit int
	metrics       *metrics.Manager
}

// WithMaxTableLimit caps the standings ?limit parameter.
func WithMaxTableLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTableLimit = n
		}
	}
}

// WithMetrics sets the manager HTTP metrics are recorded on.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := settings{maxTableLimit: DefaultMaxTableLimit, metrics: metrics.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		clubsHandler:       NewClubsHandler(deps),
		matchesHandler:     NewMatchesHandler(deps),
		competitionHandler: NewCompetitionsHandler(deps, cfg.maxTableLimit),
		metrics:            cfg.metrics,
	}
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(_ context.Context, router *mux.Router) {
	if router == nil {
		panic("router is nil")
	}
	m := func(endpoint string, h http.HandlerFunc) http.HandlerFunc {
		return MetricsMiddleware(s.metrics, endpoint, h)
	}

	router.HandleFunc("/healthz", m("healthz", s.healthHandler.HandleHealth)).Methods(http.MethodGet)
	router.HandleFunc("/stats", m("stats", s.statsHandler.HandleStats)).Methods(http.MethodGet)

	router.HandleFunc("/clubs/{id}", m("clubs", s.clubsHandler.HandlePutClub)).Methods(http.MethodPut)
	router.HandleFunc("/clubs/{id}", m("clubs", s.clubsHandler.HandleGetClub)).Methods(http.MethodGet)
	router.HandleFunc("/clubs/{id}/lineup", m("lineup", s.clubsHandler.HandlePutLineup)).Methods(http.MethodPut)
	router.HandleFunc("/clubs/{id}/settings", m("settings", s.clubsHandler.HandlePutSettings)).Methods(http.MethodPut)

	// /matches/play must be registered before /matches/{id}.
	router.HandleFunc("/matches/play", m("play", s.matchesHandler.HandlePlay)).Methods(http.MethodPost)
	router.HandleFunc("/matches", m("matches", s.matchesHandler.HandleSubmit)).Methods(http.MethodPost)
	router.HandleFunc("/matches/{id}", m("matches", s.matchesHandler.HandleGetMatch)).Methods(http.MethodGet)

	router.HandleFunc("/competitions", m("competitions", s.competitionHandler.HandleList)).Methods(http.MethodGet)
	router.HandleFunc("/competitions/{id}/season", m("season", s.competitionHandler.HandleSchedule)).Methods(http.MethodPost)
	router.HandleFunc("/competitions/{id}/standings", m("standings", s.competitionHandler.HandleStandings)).Methods(http.MethodGet)
	router.HandleFunc("/competitions/{id}/standings/{club}", m("standing", s.competitionHandler.HandleStandingOf)).Methods(http.MethodGet)
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service or repository error to a status and code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrDuplicateResult), errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrUnknownClub),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidClub),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrInvalidCompetition),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrInvalidLineup),
		errors.Is(err, simulation.ErrEmptyRoster):
		return http.StatusUnprocessableEntity, "unprocessable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
