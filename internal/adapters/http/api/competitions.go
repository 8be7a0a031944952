package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
)

// CompetitionDependencies defines the competition operations the handlers need.
type CompetitionDependencies interface {
	ScheduleSeason(ctx context.Context, competitionID string, clubIDs []string) (service.Season, error)
	Standings(ctx context.Context, competitionID string, limit int) ([]model.StandingsRow, error)
	StandingOf(ctx context.Context, competitionID, clubID string) (model.StandingsRow, error)
	Competitions(ctx context.Context) ([]string, error)
}

// CompetitionsHandler handles season scheduling and standings requests.
type CompetitionsHandler struct {
	deps     CompetitionDependencies
	maxLimit int
}

// NewCompetitionsHandler creates a new competitions handler.
func NewCompetitionsHandler(deps CompetitionDependencies, maxLimit int) *CompetitionsHandler {
	return &CompetitionsHandler{deps: deps, maxLimit: maxLimit}
}

type seasonRequest struct {
	ClubIDs []string `json:"club_ids"`
}

type standingsResponse struct {
	CompetitionID string               `json:"competition_id"`
	Rows          []model.StandingsRow `json:"rows"`
}

// HandleList handles GET /competitions.
func (h *CompetitionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_competitions"
	ids, err := h.deps.Competitions(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// HandleSchedule handles POST /competitions/{id}/season.
func (h *CompetitionsHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule_season"
	var req seasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	season, err := h.deps.ScheduleSeason(r.Context(), mux.Vars(r)["id"], req.ClubIDs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, season)
}

// HandleStandings handles GET /competitions/{id}/standings?limit=N. A missing
// limit returns the whole table up to the configured cap.
func (h *CompetitionsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	limit := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	id := mux.Vars(r)["id"]
	rows, err := h.deps.Standings(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, standingsResponse{CompetitionID: id, Rows: rows})
}

// HandleStandingOf handles GET /competitions/{id}/standings/{club}.
func (h *CompetitionsHandler) HandleStandingOf(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standing"
	vars := mux.Vars(r)
	row, err := h.deps.StandingOf(r.Context(), vars["id"], vars["club"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
