package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
)

// MatchDependencies defines the match operations the handlers need.
type MatchDependencies interface {
	Play(ctx context.Context, req model.MatchRequest) (model.MatchResult, error)
	Submit(ctx context.Context, req model.MatchRequest) (string, error)
	Result(ctx context.Context, id string) (model.MatchResult, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// matchRequest mirrors the OpenAPI schema for POST /matches.
type matchRequest struct {
	ID            string `json:"id"`
	CompetitionID string `json:"competition_id"`
	Round         int    `json:"round"`
	HomeClubID    string `json:"home_club_id"`
	AwayClubID    string `json:"away_club_id"`
}

// HandleSubmit handles POST /matches. Accepted requests are played by the
// worker pool; a repeated id is acknowledged as a duplicate.
func (h *MatchesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_match"
	var body matchRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.Submit(r.Context(), requestFrom(body))
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusOK, ackResponse{ID: id, Status: "duplicate", Duplicate: true})
	case err != nil:
		writeServiceError(w, op, err)
	default:
		writeJSON(w, http.StatusAccepted, ackResponse{ID: id, Status: "accepted"})
	}
}

// HandlePlay handles POST /matches/play and returns the result inline.
func (h *MatchesHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	const op = "api.play_match"
	var body matchRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Play(r.Context(), requestFrom(body))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetMatch handles GET /matches/{id}.
func (h *MatchesHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	res, err := h.deps.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func requestFrom(b matchRequest) model.MatchRequest {
	return model.MatchRequest{
		ID:            b.ID,
		CompetitionID: b.CompetitionID,
		Round:         b.Round,
		HomeClubID:    b.HomeClubID,
		AwayClubID:    b.AwayClubID,
	}
}
