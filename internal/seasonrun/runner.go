package seasonrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/pkg/logger"
)

// normalize fills defaults and rejects configs a run cannot use.
func normalize(cfg Config) (Config, error) {
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	if cfg.Clubs == 0 {
		cfg.Clubs = DefaultClubs
	}
	if cfg.Clubs < minClubs {
		return cfg, fmt.Errorf("%w: need at least %d clubs, got %d", ErrInvalidConfig, minClubs, cfg.Clubs)
	}
	if cfg.Competition == "" {
		cfg.Competition = "season-" + uuid.NewString()[:8]
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return cfg, nil
}

// Run registers generated clubs, schedules a season, waits for every
// fixture to be folded and verifies the final table.
func Run(ctx context.Context, cfg Config) (Report, error) {
	cfg, err := normalize(cfg)
	if err != nil {
		return Report{}, err
	}
	start := time.Now()
	log := logger.Named("seasonrun").With(logger.String("competition", cfg.Competition))

	log.Info(ctx, "starting season run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("clubs", cfg.Clubs),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate and register clubs
	clubs := generateClubs(cfg.Clubs)
	if err := registerClubs(ctx, client, clubs, cfg.Workers); err != nil {
		return Report{}, fmt.Errorf("club registration failed: %w", err)
	}
	ids := make([]string, len(clubs))
	for i, c := range clubs {
		ids[i] = c.ID
	}

	// Step 3: Schedule the season
	season, err := client.ScheduleSeason(ctx, cfg.Competition, ids)
	if err != nil {
		return Report{}, fmt.Errorf("scheduling season failed: %w", err)
	}
	log.Info(ctx, "season scheduled",
		logger.Int("rounds", season.Rounds),
		logger.Int("fixtures", len(season.Fixtures)),
		logger.Int("queued", season.Queued),
		logger.Int("skipped", season.Skipped),
	)

	// Step 4: Wait for every fixture to be folded
	table, err := waitForSeason(ctx, client, cfg, len(season.Fixtures))
	if err != nil {
		return Report{}, err
	}

	// Step 5: Verify the table
	if err := verifyTable(table.Rows, ids); err != nil {
		return Report{}, fmt.Errorf("table verification failed: %w", err)
	}

	report := Report{
		CompetitionID: cfg.Competition,
		ClubIDs:       ids,
		Rounds:        season.Rounds,
		Fixtures:      len(season.Fixtures),
		Rows:          table.Rows,
		Duration:      time.Since(start),
	}
	for _, row := range table.Rows {
		report.Goals += row.GoalsFor
	}

	if cfg.OutputFile != "" {
		if err := writeReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	log.Info(ctx, "season verified",
		logger.Int("fixtures", report.Fixtures),
		logger.Int("goals", report.Goals),
		logger.String("champion", report.Rows[0].ClubID),
		logger.Int("points", report.Rows[0].Points),
		logger.Duration("duration", report.Duration))
	return report, nil
}

// waitForSeason polls the standings until want matches have been folded.
func waitForSeason(ctx context.Context, client *HTTPClient, cfg Config, want int) (Table, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	log := logger.Named("seasonrun")
	played := 0
	for {
		table, err := client.Standings(ctx, cfg.Competition, 0)
		if err == nil {
			played = matchesPlayed(table.Rows)
			if cfg.Verbose {
				log.Info(ctx, "season progress", logger.Int("played", played), logger.Int("fixtures", want))
			}
			if played >= want {
				return table, nil
			}
		} else if ctx.Err() == nil {
			log.Warn(ctx, "standings poll failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return Table{}, fmt.Errorf("%w: %d of %d fixtures played: %w", ErrSeasonIncomplete, played, want, ctx.Err())
		case <-ticker.C:
		}
	}
}

func writeReport(filename string, report Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
