package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/simulation"
)

// Backend is the subset of the service the RPCs call.
type Backend interface {
	SaveClub(ctx context.Context, club model.Club) error
	UpdateSettings(ctx context.Context, clubID string, settings model.ClubSettings) (model.Club, error)
	Play(ctx context.Context, req model.MatchRequest) (model.MatchResult, error)
	ScheduleSeason(ctx context.Context, competitionID string, clubIDs []string) (service.Season, error)
	Standings(ctx context.Context, competitionID string, limit int) ([]model.StandingsRow, error)
}

// RPC is the Nakama RPC function signature.
type RPC = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// Handlers exposes the matchday operations as Nakama RPCs.
type Handlers struct {
	backend       Backend
	maxTableLimit int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithMaxTableLimit caps the rows a standings call may ask for.
func WithMaxTableLimit(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxTableLimit = n
		}
	}
}

// NewHandlers creates RPC handlers over backend.
func NewHandlers(backend Backend, opts ...Option) *Handlers {
	h := &Handlers{backend: backend, maxTableLimit: DefaultMaxTableLimit}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRPCs registers every matchday RPC with initializer.
func RegisterRPCs(initializer runtime.Initializer, h *Handlers) error {
	for id, fn := range map[string]RPC{
		RpcSaveClub:       h.SaveClub,
		RpcUpdateSettings: h.UpdateSettings,
		RpcPlayMatch:      h.PlayMatch,
		RpcScheduleSeason: h.ScheduleSeason,
		RpcStandings:      h.Standings,
	} {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

type settingsPayload struct {
	ClubID string `json:"club_id"`
	model.ClubSettings
}

type seasonPayload struct {
	CompetitionID string   `json:"competition_id"`
	ClubIDs       []string `json:"club_ids"`
}

type standingsPayload struct {
	CompetitionID string `json:"competition_id"`
	Limit         int    `json:"limit"`
}

type standingsResponse struct {
	CompetitionID string               `json:"competition_id"`
	Rows          []model.StandingsRow `json:"rows"`
}

// SaveClub handles matchday_save_club. Payload: a club.
func (h *Handlers) SaveClub(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
	var club model.Club
	if err := json.Unmarshal([]byte(payload), &club); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	if err := h.backend.SaveClub(ctx, club); err != nil {
		return "", toRuntimeError(logger, RpcSaveClub, err)
	}
	return encode(club)
}

// UpdateSettings handles matchday_update_settings. Omitted fields keep their
// current value.
func (h *Handlers) UpdateSettings(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
	var p settingsPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil || p.ClubID == "" {
		return "", runtime.NewError("club_id required", codeInvalidArgument)
	}
	club, err := h.backend.UpdateSettings(ctx, p.ClubID, p.ClubSettings)
	if err != nil {
		return "", toRuntimeError(logger, RpcUpdateSettings, err)
	}
	return encode(club)
}

// PlayMatch handles matchday_play_match. Payload: a match request.
func (h *Handlers) PlayMatch(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
	var req model.MatchRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	res, err := h.backend.Play(ctx, req)
	if err != nil {
		return "", toRuntimeError(logger, RpcPlayMatch, err)
	}
	return encode(res)
}

// ScheduleSeason handles matchday_schedule_season.
func (h *Handlers) ScheduleSeason(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
	var p seasonPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	season, err := h.backend.ScheduleSeason(ctx, p.CompetitionID, p.ClubIDs)
	if err != nil {
		return "", toRuntimeError(logger, RpcScheduleSeason, err)
	}
	return encode(season)
}

// Standings handles matchday_standings. A zero limit returns the table up to
// the configured cap; a larger limit is rejected.
func (h *Handlers) Standings(ctx context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, payload string) (string, error) {
	var p standingsPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil || p.CompetitionID == "" {
		return "", runtime.NewError("competition_id required", codeInvalidArgument)
	}
	switch {
	case p.Limit < 0:
		return "", runtime.NewError("limit must be positive", codeInvalidArgument)
	case p.Limit > h.maxTableLimit:
		return "", runtime.NewError("limit exceeded", codeInvalidArgument)
	case p.Limit == 0:
		p.Limit = h.maxTableLimit
	}
	rows, err := h.backend.Standings(ctx, p.CompetitionID, p.Limit)
	if err != nil {
		return "", toRuntimeError(logger, RpcStandings, err)
	}
	return encode(standingsResponse{CompetitionID: p.CompetitionID, Rows: rows})
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("internal error", codeInternal)
	}
	return string(b), nil
}

// toRuntimeError maps service errors to runtime errors with gRPC codes.
func toRuntimeError(logger runtime.Logger, rpc string, err error) error {
	code := codeInternal
	switch {
	case errors.Is(err, service.ErrNotStarted):
		code = codeUnavailable
	case errors.Is(err, service.ErrQueueFull):
		code = codeResourceExhausted
	case errors.Is(err, repository.ErrDuplicateResult), errors.Is(err, service.ErrDuplicateRequest):
		code = codeAlreadyExists
	case errors.Is(err, service.ErrUnknownClub), errors.Is(err, repository.ErrNotFound):
		code = codeNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidClub),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrInvalidCompetition),
		errors.Is(err, repository.ErrInvalidLimit):
		code = codeInvalidArgument
	case errors.Is(err, simulation.ErrEmptyRoster), errors.Is(err, service.ErrInvalidLineup):
		code = codeFailedPrecondition
	}
	if code == codeInternal {
		logger.Error("%s: %v", rpc, err)
		return runtime.NewError("internal error", code)
	}
	return runtime.NewError(err.Error(), code)
}
