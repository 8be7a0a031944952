// Command season-runner plays a generated season against a running
// matchday server and verifies the final table.
//
//	go run ./cmd/season-runner -url http://localhost:9080 -clubs 20
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/matchday/internal/seasonrun"
	"github.com/okian/matchday/pkg/logger"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		clubs       = flag.Int("clubs", seasonrun.DefaultClubs, "Number of clubs to generate")
		competition = flag.String("competition", "", "Competition id (default: generated)")
		workers     = flag.Int("workers", seasonrun.DefaultWorkers, "Concurrent club registrations")
		timeout     = flag.Duration("timeout", seasonrun.DefaultTimeout, "HTTP request timeout")
		wait        = flag.Duration("wait", seasonrun.DefaultWaitTimeout, "How long to wait for the season to finish")
		poll        = flag.Duration("poll", seasonrun.DefaultPollInterval, "Standings poll interval")
		output      = flag.String("output", "", "Write the final report as JSON to this file")
		format      = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose     = flag.Bool("verbose", false, "Log every standings poll")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := seasonrun.Run(ctx, seasonrun.Config{
		BaseURL:      *baseURL,
		Clubs:        *clubs,
		Competition:  *competition,
		Workers:      *workers,
		Timeout:      *timeout,
		WaitTimeout:  *wait,
		PollInterval: *poll,
		OutputFile:   *output,
		Verbose:      *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "season run failed", logger.Error(err))
		os.Exit(1)
	}
}
