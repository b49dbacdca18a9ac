package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/jgivc/sitestore/internal/config"
	"github.com/jgivc/sitestore/internal/registry"
	"github.com/jgivc/sitestore/internal/repository/counters"
	"github.com/jgivc/sitestore/internal/service/inventory"
	"github.com/jgivc/sitestore/internal/service/report"
	"github.com/jgivc/sitestore/internal/service/store"
	"github.com/jgivc/sitestore/internal/storage/layout"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// App wires the storage layer together: config, roots, registry and the
// services on top of it.
type App struct {
	cfg *config.Config
	log *slog.Logger

	Registry  *registry.Registry
	Store     *store.Service
	Inventory *inventory.Service
	Report    *report.Service
}

func New(cfgPath string) *App {
	cfg := config.MustLoad(cfgPath)

	lo := &slog.HandlerOptions{}
	switch cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))

	fs := afero.NewOsFs()

	l := layout.New(cfg.Storage.FilesRoot, cfg.Storage.AnalysisRoot,
		cfg.Storage.FilesCategories, cfg.Storage.AnalysisCategories)
	if err := l.EnsureRoots(fs); err != nil {
		panic(err)
	}

	var sink registry.CounterSink
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		sink = counters.NewCountersRepository(rdb, log)
	}

	reg := registry.New(fs, l, sink, log)
	st := store.NewService(fs, l, reg, log)
	inv := inventory.NewService(fs, l, reg, log)
	rep := report.NewService(inv, st, log)

	return &App{
		cfg:       cfg,
		log:       log,
		Registry:  reg,
		Store:     st,
		Inventory: inv,
		Report:    rep,
	}
}
