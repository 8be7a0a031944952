// Package service wires the simulator, the standings store and the async
// pipeline into the operations the adapters expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/adapters/mq/worker"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/dedupe"
	"github.com/okian/matchday/internal/domain/lineup"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/schedule"
	"github.com/okian/matchday/internal/domain/simulation"
	"github.com/okian/matchday/internal/domain/strength"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
	stopTimeout       = 30 * time.Second
)

// Season describes a scheduled double round robin.
type Season struct {
	CompetitionID string               `json:"competition_id"`
	Rounds        int                  `json:"rounds"`
	Fixtures      []model.MatchRequest `json:"fixtures"`
	Queued        int                  `json:"queued"`  // fixtures queued by this call
	Skipped       int                  `json:"skipped"` // fixtures already queued or played
}

// Service implements the operations behind the HTTP and Nakama adapters.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	ownsStore bool
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	sim       *simulation.Simulator
	evaluator strength.Evaluator
	metrics   *metrics.Manager
	newID     func() string

	workerCount      int
	queueSize        int
	dedupeSize       int
	snapshotInterval time.Duration
	seed             int64

	started bool
	cancel  context.CancelFunc

	played atomic.Int64
	failed atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Call Start before using it.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		evaluator:   strength.Default,
		metrics:     metrics.Default(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	return s
}

// Start creates the components and launches the worker pool. Workers run
// until Stop or until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting matchday service...")

	runCtx, cancel := context.WithCancel(ctx)
	if s.store == nil {
		s.store = repository.NewMemoryStore(runCtx,
			repository.WithSnapshotInterval(s.snapshotInterval),
			repository.WithMetrics(s.metrics),
		)
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}

	simOpts := []simulation.Option{simulation.WithIDGenerator(s.newID)}
	if s.seed != 0 {
		simOpts = append(simOpts, simulation.WithSeed(s.seed))
	}
	s.sim = simulation.New(simOpts...)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithMetrics(s.metrics))
	store, sim := s.store, s.sim
	player := worker.PlayerFunc(func(ctx context.Context, req model.MatchRequest) (model.MatchResult, error) {
		return s.play(ctx, store, sim, req)
	})
	s.pool = worker.NewPool(s.workerCount, s.queue, player,
		worker.WithLogger(s.logger),
		worker.WithMetrics(s.metrics),
	)
	s.pool.Start(runCtx)

	s.cancel = cancel
	s.started = true
	s.logger.Info(ctx, "matchday service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("seeded", s.seed != 0),
	)
	return nil
}

// Stop drains queued requests, stops the workers and closes an owned store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping matchday service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "matchday service stopped",
		logger.Int("played", int(s.played.Load())),
		logger.Int("failed", int(s.failed.Load())),
	)
}

// components returns the store and simulator if the service is running.
func (s *Service) components() (repository.Store, *simulation.Simulator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.sim, nil
}

// Play simulates req synchronously and records the result.
func (s *Service) Play(ctx context.Context, req model.MatchRequest) (model.MatchResult, error) {
	store, sim, err := s.components()
	if err != nil {
		return model.MatchResult{}, err
	}
	return s.play(ctx, store, sim, req)
}

// play loads both clubs, evaluates them, simulates the match and records it.
// Workers call it with the components captured at Start so draining during
// Stop never needs the service lock.
func (s *Service) play(ctx context.Context, store repository.Store, sim *simulation.Simulator, req model.MatchRequest) (model.MatchResult, error) {
	start := time.Now()
	res, err := s.playOnce(ctx, store, sim, req)
	s.metrics.RecordSimulationLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		s.failed.Add(1)
		return model.MatchResult{}, err
	}
	s.played.Add(1)
	return res, nil
}

func (s *Service) playOnce(ctx context.Context, store repository.Store, sim *simulation.Simulator, req model.MatchRequest) (model.MatchResult, error) {
	if err := validateRequest(req); err != nil {
		s.metrics.RecordSimulationError("invalid_request")
		return model.MatchResult{}, err
	}

	home, away, err := s.loadClubs(ctx, store, req)
	if err != nil {
		s.metrics.RecordSimulationError("unknown_club")
		return model.MatchResult{}, err
	}

	homeStrength := s.evaluator.Evaluate(home)
	awayStrength := s.evaluator.Evaluate(away)
	s.metrics.ObserveStrength(homeStrength)
	s.metrics.ObserveStrength(awayStrength)

	res, err := sim.Simulate(simulation.Input{
		MatchID:       req.ID,
		CompetitionID: req.CompetitionID,
		Round:         req.Round,
		Home:          home,
		Away:          away,
		HomeStrength:  homeStrength,
		AwayStrength:  awayStrength,
	})
	if err != nil {
		s.metrics.RecordSimulationError("simulation")
		return model.MatchResult{}, fmt.Errorf("simulating %s vs %s: %w", home.ID, away.ID, err)
	}

	if err := store.RecordResult(ctx, res); err != nil {
		s.metrics.RecordSimulationError("record")
		if !errors.Is(err, repository.ErrDuplicateResult) {
			s.metrics.RecordErrorByComponent("repository", "record_result")
		}
		return model.MatchResult{}, fmt.Errorf("recording match %s: %w", res.ID, err)
	}

	cards := 0
	for _, ev := range res.Events {
		if ev.Kind == model.Card {
			cards++
		}
	}
	s.metrics.RecordMatchSimulated(res.Friendly(), res.HomeGoals, res.AwayGoals, cards)
	s.logger.Debug(ctx, "match played",
		logger.String("match_id", res.ID),
		logger.String("competition_id", res.CompetitionID),
		logger.String("home", home.ID),
		logger.String("away", away.ID),
		logger.Float64("home_strength", homeStrength),
		logger.Float64("away_strength", awayStrength),
		logger.Int("home_goals", res.HomeGoals),
		logger.Int("away_goals", res.AwayGoals),
	)
	return res, nil
}

func (s *Service) loadClubs(ctx context.Context, store repository.Store, req model.MatchRequest) (model.Club, model.Club, error) {
	home, err := store.Club(ctx, req.HomeClubID)
	if err != nil {
		return model.Club{}, model.Club{}, clubError(req.HomeClubID, err)
	}
	away, err := store.Club(ctx, req.AwayClubID)
	if err != nil {
		return model.Club{}, model.Club{}, clubError(req.AwayClubID, err)
	}
	return home, away, nil
}

func clubError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("club %s: %w", id, ErrUnknownClub)
	}
	return fmt.Errorf("loading club %s: %w", id, err)
}

func validateRequest(req model.MatchRequest) error {
	switch {
	case req.HomeClubID == "" || req.AwayClubID == "":
		return fmt.Errorf("both clubs are required: %w", ErrInvalidRequest)
	case req.HomeClubID == req.AwayClubID:
		return fmt.Errorf("club %s cannot play itself: %w", req.HomeClubID, ErrInvalidRequest)
	case req.Round < 0:
		return fmt.Errorf("round %d: %w", req.Round, ErrInvalidRequest)
	}
	return nil
}

// Submit validates req, rejects request ids seen before and queues it for
// the worker pool. It returns the match id, generated when req has none.
func (s *Service) Submit(ctx context.Context, req model.MatchRequest) (string, error) {
	store, _, err := s.components()
	if err != nil {
		return "", err
	}
	if err := validateRequest(req); err != nil {
		return "", err
	}
	if _, _, err := s.loadClubs(ctx, store, req); err != nil {
		return "", err
	}
	if req.ID == "" {
		req.ID = s.newID()
	}

	if s.deduper.SeenAndRecord(ctx, req.ID) {
		s.metrics.RecordRequestDuplicate()
		return req.ID, fmt.Errorf("match %s: %w", req.ID, ErrDuplicateRequest)
	}
	if err := s.queue.Enqueue(ctx, req); err != nil {
		s.deduper.Unrecord(ctx, req.ID)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return req.ID, fmt.Errorf("match %s: %w", req.ID, ErrQueueFull)
		}
		return req.ID, err
	}
	s.logger.Debug(ctx, "match queued",
		logger.String("match_id", req.ID),
		logger.String("competition_id", req.CompetitionID),
	)
	return req.ID, nil
}

// ScheduleSeason queues a double round robin between clubIDs. Match ids are
// derived from the competition and the fixture. Fixtures already queued or
// recorded are skipped, so a season interrupted part way is resumed by
// scheduling it again; once every fixture is queued or played a further
// call fails with ErrDuplicateRequest. Nothing is queued unless the queue
// has room for every remaining fixture.
func (s *Service) ScheduleSeason(ctx context.Context, competitionID string, clubIDs []string) (Season, error) {
	store, _, err := s.components()
	if err != nil {
		return Season{}, err
	}
	if competitionID == "" || competitionID == model.FriendlyCompetition {
		return Season{}, fmt.Errorf("competition %q: %w", competitionID, ErrInvalidCompetition)
	}
	rounds, err := schedule.DoubleRoundRobin(clubIDs)
	if err != nil {
		return Season{}, fmt.Errorf("%w: %w", ErrInvalidCompetition, err)
	}
	for _, id := range clubIDs {
		if _, err := store.Club(ctx, id); err != nil {
			return Season{}, clubError(id, err)
		}
	}

	season := Season{CompetitionID: competitionID, Rounds: len(rounds)}
	var pending []model.MatchRequest
	for _, round := range rounds {
		for _, f := range round {
			req := f.Request(fixtureID(competitionID, f), competitionID)
			season.Fixtures = append(season.Fixtures, req)
			done, err := s.fixtureDone(ctx, store, req.ID)
			if err != nil {
				return Season{}, err
			}
			if done {
				season.Skipped++
				continue
			}
			pending = append(pending, req)
		}
	}
	if len(pending) == 0 {
		return season, fmt.Errorf("competition %s: all %d fixtures queued or played: %w",
			competitionID, len(season.Fixtures), ErrDuplicateRequest)
	}
	if free := s.queue.Capacity() - s.queue.Len(ctx); len(pending) > free {
		return Season{}, fmt.Errorf("competition %s needs %d queue slots, %d free: %w",
			competitionID, len(pending), free, ErrQueueFull)
	}

	for _, req := range pending {
		if _, err := s.Submit(ctx, req); err != nil {
			if errors.Is(err, ErrDuplicateRequest) {
				season.Skipped++
				continue
			}
			s.metrics.RecordErrorByComponent("service", "schedule_season")
			return season, fmt.Errorf("queued %d of %d fixtures, schedule again to resume: %w",
				season.Queued, len(pending), err)
		}
		season.Queued++
	}
	s.metrics.RecordSeasonScheduled()
	s.logger.Info(ctx, "season scheduled",
		logger.String("competition_id", competitionID),
		logger.Int("clubs", len(clubIDs)),
		logger.Int("rounds", season.Rounds),
		logger.Int("queued", season.Queued),
		logger.Int("skipped", season.Skipped),
	)
	return season, nil
}

// fixtureDone reports whether a fixture is already waiting in the queue or
// has a recorded result.
func (s *Service) fixtureDone(ctx context.Context, store repository.Store, id string) (bool, error) {
	if s.deduper.Seen(ctx, id) {
		return true, nil
	}
	switch _, err := store.Result(ctx, id); {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("checking fixture %s: %w", id, err)
	}
}

func fixtureID(competitionID string, f schedule.Fixture) string {
	return fmt.Sprintf("%s:r%02d:%s:%s", competitionID, f.Round, f.HomeClubID, f.AwayClubID)
}

// SaveClub validates and stores a club. Settings left empty take
// model.DefaultSettings.
func (s *Service) SaveClub(ctx context.Context, club model.Club) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	if err := validateClub(club); err != nil {
		return err
	}
	// Defaults first, then whatever the caller set.
	club = club.WithSettings(model.DefaultSettings).WithSettings(club.Settings())
	return store.SaveClub(ctx, club)
}

func validateClub(club model.Club) error {
	if club.ID == "" {
		return fmt.Errorf("club id is required: %w", ErrInvalidClub)
	}
	if err := validateSettings(club.Settings()); err != nil {
		return fmt.Errorf("club %s: %w: %w", club.ID, ErrInvalidClub, err)
	}
	if club.Reputation < 0 || club.Reputation > 100 {
		return fmt.Errorf("reputation %d out of range: %w", club.Reputation, ErrInvalidClub)
	}
	if club.Formation != "" {
		if _, err := lineup.SlotsFor(club.Formation); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidClub, err)
		}
	}
	seen := make(map[string]struct{}, len(club.Players))
	for _, p := range club.Players {
		if p.ID == "" {
			return fmt.Errorf("player without id: %w", ErrInvalidClub)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("player %s listed twice: %w", p.ID, ErrInvalidClub)
		}
		seen[p.ID] = struct{}{}
		if !p.Position.Valid() {
			return fmt.Errorf("player %s position %q: %w", p.ID, p.Position, ErrInvalidClub)
		}
		for _, v := range []int{p.Overall, p.Morale, p.Stamina} {
			if v < 0 || v > 100 {
				return fmt.Errorf("player %s rating %d out of range: %w", p.ID, v, ErrInvalidClub)
			}
		}
	}
	return nil
}

// Club returns a stored club.
func (s *Service) Club(ctx context.Context, id string) (model.Club, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Club{}, err
	}
	return store.Club(ctx, id)
}

// SetLineup replaces a club's starters and substitutes.
func (s *Service) SetLineup(ctx context.Context, clubID string, starterIDs, substituteIDs []string) (model.Club, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Club{}, err
	}
	club, err := store.Club(ctx, clubID)
	if err != nil {
		return model.Club{}, err
	}
	next, err := lineup.Apply(club, starterIDs, substituteIDs)
	if err != nil {
		s.metrics.RecordLineupRejected()
		return model.Club{}, fmt.Errorf("club %s: %w: %w", clubID, ErrInvalidLineup, err)
	}
	if err := store.SaveClub(ctx, next); err != nil {
		return model.Club{}, err
	}
	return next, nil
}

// UpdateSettings applies the non-empty fields of settings to a stored club.
func (s *Service) UpdateSettings(ctx context.Context, clubID string, settings model.ClubSettings) (model.Club, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Club{}, err
	}
	if err := validateSettings(settings); err != nil {
		return model.Club{}, fmt.Errorf("club %s: %w", clubID, err)
	}
	club, err := store.Club(ctx, clubID)
	if err != nil {
		return model.Club{}, err
	}
	next := club.WithSettings(settings)
	if err := store.SaveClub(ctx, next); err != nil {
		return model.Club{}, err
	}
	s.logger.Debug(ctx, "club settings updated",
		logger.String("club_id", clubID),
		logger.String("tactic", string(next.Tactic)),
		logger.String("training", string(next.Training)),
		logger.String("pre_talk", string(next.PreTalk)),
	)
	return next, nil
}

// validateSettings accepts empty fields and rejects unknown values.
func validateSettings(settings model.ClubSettings) error {
	switch {
	case settings.Tactic != "" && !settings.Tactic.Valid():
		return fmt.Errorf("tactic %q: %w", settings.Tactic, ErrInvalidSettings)
	case settings.Training != "" && !settings.Training.Valid():
		return fmt.Errorf("training %q: %w", settings.Training, ErrInvalidSettings)
	case settings.PreTalk != "" && !settings.PreTalk.Valid():
		return fmt.Errorf("pre-talk %q: %w", settings.PreTalk, ErrInvalidSettings)
	}
	return nil
}

// Result returns a recorded match.
func (s *Service) Result(ctx context.Context, id string) (model.MatchResult, error) {
	store, _, err := s.components()
	if err != nil {
		return model.MatchResult{}, err
	}
	return store.Result(ctx, id)
}

// Standings returns a competition's ranked table. A limit of 0 returns every row.
func (s *Service) Standings(ctx context.Context, competitionID string, limit int) ([]model.StandingsRow, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	rows, err := store.Standings(ctx, competitionID, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStandingsRows(len(rows))
	return rows, nil
}

// StandingOf returns one club's ranked row.
func (s *Service) StandingOf(ctx context.Context, competitionID, clubID string) (model.StandingsRow, error) {
	store, _, err := s.components()
	if err != nil {
		return model.StandingsRow{}, err
	}
	return store.StandingOf(ctx, competitionID, clubID)
}

// Competitions lists competitions with standings.
func (s *Service) Competitions(ctx context.Context) ([]string, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.Competitions(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"played":      s.played.Load(),
		"failed":      s.failed.Load(),
	}
	if !s.started {
		return stats
	}

	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = s.queue.Len(ctx)
	stats["dedupeEntries"] = s.deduper.Size()
	if counts, err := s.store.Count(ctx); err == nil {
		stats["clubs"] = counts.Clubs
		stats["results"] = counts.Results
		stats["competitions"] = counts.Competitions
		s.metrics.UpdateClubsTotal(counts.Clubs)
		s.metrics.UpdateCompetitionsTotal(counts.Competitions)
	} else {
		s.logger.Warn(ctx, "counting store contents", logger.Error(err))
	}
	return stats
}
