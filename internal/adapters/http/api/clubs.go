package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/matchday/internal/domain/model"
)

// ClubDependencies defines the club operations the handlers need.
type ClubDependencies interface {
	SaveClub(ctx context.Context, club model.Club) error
	Club(ctx context.Context, id string) (model.Club, error)
	SetLineup(ctx context.Context, clubID string, starterIDs, substituteIDs []string) (model.Club, error)
	UpdateSettings(ctx context.Context, clubID string, settings model.ClubSettings) (model.Club, error)
}

// ClubsHandler handles club, lineup and settings requests.
type ClubsHandler struct {
	deps ClubDependencies
}

// NewClubsHandler creates a new clubs handler.
func NewClubsHandler(deps ClubDependencies) *ClubsHandler {
	return &ClubsHandler{deps: deps}
}

type lineupRequest struct {
	Starters    []string `json:"starters"`
	Substitutes []string `json:"substitutes"`
}

// HandlePutClub handles PUT /clubs/{id}. The path id wins over an empty body
// id; a different body id is rejected.
func (h *ClubsHandler) HandlePutClub(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_club"
	id := mux.Vars(r)["id"]

	var club model.Club
	if err := decode(r, &club); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if club.ID == "" {
		club.ID = id
	}
	if club.ID != id {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("body id does not match path")))
		return
	}
	if err := h.deps.SaveClub(r.Context(), club); err != nil {
		writeServiceError(w, op, err)
		return
	}
	// Echo the stored club so defaulted settings are visible.
	stored, err := h.deps.Club(r.Context(), club.ID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// HandleGetClub handles GET /clubs/{id}.
func (h *ClubsHandler) HandleGetClub(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_club"
	club, err := h.deps.Club(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// HandlePutLineup handles PUT /clubs/{id}/lineup.
func (h *ClubsHandler) HandlePutLineup(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_lineup"
	var req lineupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	club, err := h.deps.SetLineup(r.Context(), mux.Vars(r)["id"], req.Starters, req.Substitutes)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// HandlePutSettings handles PUT /clubs/{id}/settings. Omitted fields keep
// their current value.
func (h *ClubsHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_settings"
	var settings model.ClubSettings
	if err := decode(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	club, err := h.deps.UpdateSettings(r.Context(), mux.Vars(r)["id"], settings)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}
