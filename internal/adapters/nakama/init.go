package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/config"
	"github.com/okian/matchday/pkg/logger"
)

// InitModule starts a matchday service inside the Nakama runtime and
// registers its RPCs. Results and standings are kept in Nakama's own
// database when one is provided.
func InitModule(ctx context.Context, nkLogger runtime.Logger, db *sql.DB, _ runtime.NakamaModule, initializer runtime.Initializer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	opts := []service.Option{
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeed(cfg.Seed),
		service.WithSnapshotInterval(cfg.SnapshotInterval()),
	}
	if db != nil {
		store := repository.NewPostgresStoreFromDB(db)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating matchday tables: %w", err)
		}
		opts = append(opts, service.WithStore(store))
	}

	svc := service.New(opts...)
	// The runtime ctx is scoped to InitModule; workers must outlive it.
	if err := svc.Start(context.Background()); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	if err := RegisterRPCs(initializer, NewHandlers(svc, WithMaxTableLimit(cfg.MaxTableLimit))); err != nil {
		svc.Stop()
		return err
	}
	if err := initializer.RegisterShutdown(func(_ context.Context, l runtime.Logger, _ *sql.DB, _ runtime.NakamaModule) {
		svc.Stop()
		l.Info("matchday module stopped")
	}); err != nil {
		svc.Stop()
		return err
	}

	nkLogger.Info("matchday module loaded")
	return nil
}
