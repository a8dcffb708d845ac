package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papapumpkin/parallax/internal/config"
	"github.com/papapumpkin/parallax/internal/ingest"
	"github.com/papapumpkin/parallax/internal/logging"
	"github.com/papapumpkin/parallax/internal/store"
	"github.com/papapumpkin/parallax/internal/telemetry"
)

// app bundles everything a command needs to drive the ingestion service.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	emitter *telemetry.Emitter
	svc     *ingest.Service
}

type appOption func(*config.Config)

// logToFile sends log output into the state directory, for commands that
// own the terminal.
func logToFile(cfg *config.Config) {
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Store.Dir, "parallax.log")
	}
}

// newApp loads configuration, builds the logger, opens the store and
// restores the service from it.
func newApp(ctx context.Context, opts ...appOption) (*app, error) {
	cfg := config.Load()
	for _, o := range opts {
		o(&cfg)
	}

	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	var paths []string
	if cfg.Log.File != "" {
		paths = []string{cfg.Log.File}
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, paths...)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("build logger: %w", err)
	}

	var emitter *telemetry.Emitter
	if cfg.Telemetry.Path != "" {
		emitter, err = telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			logger.Warn("telemetry disabled", zap.Error(err))
			emitter = nil
		}
	}

	svc := ingest.NewService(ctx, ingest.ServiceConfig{
		Dir:            cfg.Journal.Dir,
		Pattern:        cfg.Journal.Pattern,
		Workers:        cfg.Ingest.Workers,
		PollInterval:   cfg.Tail.PollInterval,
		RescanInterval: cfg.Ingest.RescanInterval,
		Stream:         cfg.Stream,
		AutoScan:       cfg.AutoScan,
		Store:          st,
		Logger:         logger,
		Telemetry:      emitter,
	})
	logger.Debug("service ready",
		zap.String("journals", cfg.Journal.Dir),
		zap.String("state", cfg.Store.Dir),
		zap.String("backend", cfg.Store.Backend),
		zap.String("run", emitter.RunID()))

	return &app{cfg: cfg, logger: logger, emitter: emitter, svc: svc}, nil
}

// Close flushes state and releases every resource.
func (a *app) Close() error {
	err := a.svc.Close()
	err = errors.Join(err, a.emitter.Close())
	_ = a.logger.Sync()
	return err
}
