package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/standings"
	"github.com/okian/matchday/pkg/metrics"
)

const postgresLabel = "postgres"

// PostgresStore persists clubs, results and standings rows in Postgres.
// RecordResult takes a transaction-scoped advisory lock per competition so
// folds for one competition never interleave.
type PostgresStore struct {
	db      *sql.DB
	metrics *metrics.Manager
}

// NewPostgresStore opens dsn with lib/pq and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return NewPostgresStoreFromDB(db, opts...), nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, metrics: metrics.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clubs (
			id          TEXT PRIMARY KEY,
			name        TEXT  NOT NULL DEFAULT '',
			reputation  INT   NOT NULL DEFAULT 0,
			formation   TEXT  NOT NULL DEFAULT '',
			tactic      TEXT  NOT NULL DEFAULT '',
			training    TEXT  NOT NULL DEFAULT '',
			pre_talk    TEXT  NOT NULL DEFAULT '',
			players     JSONB NOT NULL DEFAULT '[]'
		)`,
		// Tables created before club settings existed.
		`ALTER TABLE clubs
			ADD COLUMN IF NOT EXISTS tactic   TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS training TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS pre_talk TEXT NOT NULL DEFAULT ''`,
		`CREATE TABLE IF NOT EXISTS match_results (
			id             TEXT PRIMARY KEY,
			competition_id TEXT NOT NULL DEFAULT '',
			round          INT  NOT NULL DEFAULT 0,
			home_club_id   TEXT NOT NULL,
			away_club_id   TEXT NOT NULL,
			home_goals     INT  NOT NULL,
			away_goals     INT  NOT NULL,
			events         JSONB NOT NULL DEFAULT '[]',
			played_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS standings (
			competition_id TEXT NOT NULL,
			club_id        TEXT NOT NULL,
			entry_seq      BIGSERIAL,
			played         INT NOT NULL DEFAULT 0,
			won            INT NOT NULL DEFAULT 0,
			drawn          INT NOT NULL DEFAULT 0,
			lost           INT NOT NULL DEFAULT 0,
			goals_for      INT NOT NULL DEFAULT 0,
			goals_against  INT NOT NULL DEFAULT 0,
			points         INT NOT NULL DEFAULT 0,
			PRIMARY KEY (competition_id, club_id)
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveClub(ctx context.Context, club model.Club) error {
	if club.ID == "" {
		return fmt.Errorf("club without id: %w", ErrInvalidClub)
	}
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryUpdateLatency(postgresLabel, msSince(start)) }()

	players, err := json.Marshal(club.Players)
	if err != nil {
		return fmt.Errorf("encoding players of %s: %w", club.ID, err)
	}
	const q = `
		INSERT INTO clubs (id, name, reputation, formation, tactic, training, pre_talk, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			reputation = EXCLUDED.reputation,
			formation = EXCLUDED.formation,
			tactic = EXCLUDED.tactic,
			training = EXCLUDED.training,
			pre_talk = EXCLUDED.pre_talk,
			players = EXCLUDED.players`
	if _, err := s.db.ExecContext(ctx, q, club.ID, club.Name, club.Reputation, club.Formation,
		string(club.Tactic), string(club.Training), string(club.PreTalk), players); err != nil {
		return fmt.Errorf("saving club %s: %w", club.ID, err)
	}
	return nil
}

func (s *PostgresStore) Club(ctx context.Context, id string) (model.Club, error) {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryQueryLatency(postgresLabel, msSince(start)) }()

	var (
		c       model.Club
		players []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, reputation, formation, tactic, training, pre_talk, players FROM clubs WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Reputation, &c.Formation, &c.Tactic, &c.Training, &c.PreTalk, &players)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Club{}, fmt.Errorf("club %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Club{}, fmt.Errorf("loading club %s: %w", id, err)
	}
	if err := json.Unmarshal(players, &c.Players); err != nil {
		return model.Club{}, fmt.Errorf("decoding players of %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) RecordResult(ctx context.Context, result model.MatchResult) error {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryUpdateLatency(postgresLabel, msSince(start)) }()

	if result.ID == "" {
		return fmt.Errorf("result without id: %w", ErrInvalidResult)
	}
	if !result.Friendly() {
		if _, err := (standings.Table{}).Fold(result); err != nil {
			return err
		}
	}
	events, err := json.Marshal(result.Events)
	if err != nil {
		return fmt.Errorf("encoding events of %s: %w", result.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin RecordResult tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if !result.Friendly() {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, result.CompetitionID); err != nil {
			return fmt.Errorf("locking competition %s: %w", result.CompetitionID, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO match_results
			(id, competition_id, round, home_club_id, away_club_id, home_goals, away_goals, events, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		result.ID, result.CompetitionID, result.Round, result.HomeClubID, result.AwayClubID,
		result.HomeGoals, result.AwayGoals, events, result.PlayedAt)
	if err != nil {
		return fmt.Errorf("inserting match %s: %w", result.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("inserting match %s: %w", result.ID, err)
	} else if n == 0 {
		s.metrics.RecordResultDuplicate()
		return fmt.Errorf("match %s: %w", result.ID, ErrDuplicateResult)
	}

	if !result.Friendly() {
		if err := s.fold(ctx, tx, result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit RecordResult tx: %w", err)
	}
	s.metrics.RecordResultPersisted()
	if !result.Friendly() {
		s.metrics.RecordStandingsFold()
	}
	return nil
}

// fold loads both clubs' rows, applies result through standings.Table and
// writes them back. Home is written first so first-appearance order holds.
func (s *PostgresStore) fold(ctx context.Context, tx *sql.Tx, result model.MatchResult) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT club_id, played, won, drawn, lost, goals_for, goals_against, points
		FROM standings
		WHERE competition_id = $1 AND club_id = ANY($2)
		ORDER BY entry_seq`,
		result.CompetitionID, pq.Array([]string{result.HomeClubID, result.AwayClubID}))
	if err != nil {
		return fmt.Errorf("loading standings of %s: %w", result.CompetitionID, err)
	}
	existing, err := scanRows(rows)
	if err != nil {
		return err
	}

	next, err := standings.NewTable(existing...).Fold(result)
	if err != nil {
		return err
	}

	const upsert = `
		INSERT INTO standings
			(competition_id, club_id, played, won, drawn, lost, goals_for, goals_against, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (competition_id, club_id) DO UPDATE SET
			played = EXCLUDED.played,
			won = EXCLUDED.won,
			drawn = EXCLUDED.drawn,
			lost = EXCLUDED.lost,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			points = EXCLUDED.points`
	for _, id := range []string{result.HomeClubID, result.AwayClubID} {
		r, _ := next.Row(id)
		if _, err := tx.ExecContext(ctx, upsert, result.CompetitionID, r.ClubID,
			r.Played, r.Won, r.Drawn, r.Lost, r.GoalsFor, r.GoalsAgainst, r.Points); err != nil {
			return fmt.Errorf("updating standing of %s: %w", id, err)
		}
	}
	return nil
}

func (s *PostgresStore) Result(ctx context.Context, id string) (model.MatchResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryQueryLatency(postgresLabel, msSince(start)) }()

	var (
		r      model.MatchResult
		events []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, competition_id, round, home_club_id, away_club_id, home_goals, away_goals, events, played_at
		FROM match_results WHERE id = $1`, id,
	).Scan(&r.ID, &r.CompetitionID, &r.Round, &r.HomeClubID, &r.AwayClubID, &r.HomeGoals, &r.AwayGoals, &events, &r.PlayedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchResult{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("loading match %s: %w", id, err)
	}
	if err := json.Unmarshal(events, &r.Events); err != nil {
		return model.MatchResult{}, fmt.Errorf("decoding events of %s: %w", id, err)
	}
	r.PlayedAt = r.PlayedAt.UTC()
	return r, nil
}

// table loads a competition in first-appearance order.
func (s *PostgresStore) table(ctx context.Context, competitionID string) (standings.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT club_id, played, won, drawn, lost, goals_for, goals_against, points
		FROM standings WHERE competition_id = $1
		ORDER BY entry_seq`, competitionID)
	if err != nil {
		return standings.Table{}, fmt.Errorf("loading standings of %s: %w", competitionID, err)
	}
	existing, err := scanRows(rows)
	if err != nil {
		return standings.Table{}, err
	}
	if len(existing) == 0 {
		return standings.Table{}, fmt.Errorf("competition %s: %w", competitionID, ErrNotFound)
	}
	return standings.NewTable(existing...), nil
}

func (s *PostgresStore) Standings(ctx context.Context, competitionID string, limit int) ([]model.StandingsRow, error) {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryQueryLatency(postgresLabel, msSince(start)) }()

	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	t, err := s.table(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return page(t.Rank(), limit)
}

func (s *PostgresStore) StandingOf(ctx context.Context, competitionID, clubID string) (model.StandingsRow, error) {
	t, err := s.table(ctx, competitionID)
	if err != nil {
		return model.StandingsRow{}, err
	}
	for _, r := range t.Rank() {
		if r.ClubID == clubID {
			return r, nil
		}
	}
	return model.StandingsRow{}, fmt.Errorf("club %s in %s: %w", clubID, competitionID, ErrNotFound)
}

func (s *PostgresStore) Competitions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT competition_id FROM standings ORDER BY competition_id`)
	if err != nil {
		return nil, fmt.Errorf("listing competitions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clubs),
			(SELECT COUNT(*) FROM match_results),
			(SELECT COUNT(DISTINCT competition_id) FROM standings)`,
	).Scan(&c.Clubs, &c.Results, &c.Competitions)
	if err != nil {
		return Counts{}, fmt.Errorf("counting: %w", err)
	}
	return c, nil
}

func scanRows(rows *sql.Rows) ([]model.StandingsRow, error) {
	defer rows.Close()
	var out []model.StandingsRow
	for rows.Next() {
		var r model.StandingsRow
		if err := rows.Scan(&r.ClubID, &r.Played, &r.Won, &r.Drawn, &r.Lost, &r.GoalsFor, &r.GoalsAgainst, &r.Points); err != nil {
			return nil, fmt.Errorf("scanning standing: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading standings: %w", err)
	}
	return out, nil
}
