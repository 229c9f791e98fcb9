package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/controllers/restserver"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/managers"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/pipeline"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage/sqlite"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance. cfg must already be validated.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Convert runs one conversion of the configured input directory. SIGINT and
// SIGTERM stop scheduling new snapshots.
func (a *App) Convert(ctx context.Context) (pipeline.Summary, error) {
	ctx, cancel := withSignals(ctx)
	defer cancel()

	opts, err := pipeline.OptionsFromConfig(a.cfg)
	if err != nil {
		return pipeline.Summary{}, err
	}

	storageManager, err := managers.NewStorageManager(ctx, a.cfg, a.logger)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer func() {
		if err := storageManager.Close(); err != nil {
			log.Warnw("could not close storage engines", "error", err)
		}
	}()

	conv := pipeline.New(opts, storageManager, a.logger)
	summary, err := conv.Run(ctx)

	for name, h := range storageManager.Health.GetAllHealth() {
		a.logger.Infow("storage engine", "engine", name, "status", h.Status, "stored", h.Stored, "failed", h.Failed)
	}
	return summary, err
}

// Serve runs the playback API and blocks until shutdown
func (a *App) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var reader restserver.StatsReader
	if a.cfg.Storage.SQLite != nil {
		store, err := sqlite.New(ctx, a.cfg.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("could not open statistics store: %w", err)
		}
		defer store.Close()
		reader = store
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.cfg, reader, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for the REST server to terminate...")
	wg.Wait()
	log.Info("shutdown complete")
	return nil
}

func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			log.Info("shutdown signal received, finishing in-flight snapshots...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
