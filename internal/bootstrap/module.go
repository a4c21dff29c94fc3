package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"airwatch/internal/api"
	"airwatch/internal/bootstrap/config"
	"airwatch/internal/bootstrap/database"
	"airwatch/internal/bootstrap/logging"
	"airwatch/internal/bootstrap/probes"
	cacheinfra "airwatch/internal/infrastructure/cache"
	"airwatch/internal/infrastructure/events"
	"airwatch/internal/infrastructure/objectstore"
	sqliterepo "airwatch/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "airwatch/internal/infrastructure/persistence/sqlite/uow"
	"airwatch/internal/infrastructure/timeseries"
	"airwatch/internal/ports"
	"airwatch/internal/usecase/accounts"
	"airwatch/internal/usecase/ingest"
	"airwatch/internal/usecase/jobs"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewUserRepository,
			fx.As(new(ports.UserRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReadingRepository,
			fx.As(new(ports.ReadingRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewGranuleRepository,
			fx.As(new(ports.GranuleRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewJobRepository,
			fx.As(new(ports.JobRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(providePublisher),
	fx.Provide(bindPublisher),
	fx.Provide(provideMirror),
	fx.Provide(bindMirror),
	fx.Provide(provideObjectStore),
	fx.Provide(bindObjectStore),
	fx.Provide(provideProbes),
	fx.Provide(accounts.NewService),
	fx.Provide(ingest.NewService),
	fx.Provide(provideDefinitions),
	fx.Provide(jobs.NewService),
	fx.Provide(provideRegistry),
	fx.Provide(provideRunner),
	fx.Provide(provideWatcher),
	fx.Provide(api.NewHandler),
	fx.Provide(api.NewRouter),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	if err := EnsureDirectories(logCtx, cfg.Storage); err != nil {
		return nil, err
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideCache(cfg config.Config, db *gorm.DB) ports.Cache {
	if strings.ToLower(cfg.Cache.Driver) == "redis" {
		return cacheinfra.NewRedisCache(cfg.Cache.Redis)
	}
	return cacheinfra.NewSQLiteCache(db)
}

func providePublisher(lc fx.Lifecycle, cfg config.Config) (*events.NATSPublisher, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}

	publisher, err := events.NewNATSPublisher(cfg.NATS, probes.NewBreaker("nats"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func bindPublisher(publisher *events.NATSPublisher) ports.EventPublisher {
	if publisher == nil {
		return nil
	}
	return publisher
}

func provideMirror(lc fx.Lifecycle, cfg config.Config) *timeseries.InfluxMirror {
	if !cfg.Influx.Enabled {
		return nil
	}

	mirror := timeseries.NewInfluxMirror(cfg.Influx, probes.NewBreaker("influx"))
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			mirror.Close()
			return nil
		},
	})
	return mirror
}

func bindMirror(mirror *timeseries.InfluxMirror) ports.ReadingMirror {
	if mirror == nil {
		return nil
	}
	return mirror
}

func provideObjectStore(ctx context.Context, cfg config.Config) (*objectstore.S3Store, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}
	return objectstore.NewS3Store(ctx, cfg.S3)
}

func bindObjectStore(store *objectstore.S3Store) ports.ObjectStore {
	if store == nil {
		return nil
	}
	return store
}

// provideProbes assembles the dependency checks run during bootstrap and by
// GET /health/deep. The primary database is always required; external
// adapters are probed only when configured.
func provideProbes(
	cfg config.Config,
	db *gorm.DB,
	cacheImpl ports.Cache,
	publisher *events.NATSPublisher,
	mirror *timeseries.InfluxMirror,
	store *objectstore.S3Store,
) []probes.Probe {
	checks := []probes.Probe{
		{
			Name:     "sqlite",
			Required: true,
			Run: func(ctx context.Context) error {
				return database.Ping(ctx, db)
			},
		},
	}

	if redisCache, ok := cacheImpl.(*cacheinfra.RedisCache); ok {
		checks = append(checks, probes.Probe{
			Name:     "redis",
			Required: true,
			Run:      redisCache.Ping,
		})
	}
	if publisher != nil {
		checks = append(checks, probes.Probe{Name: "nats", Run: publisher.Probe})
	}
	if mirror != nil {
		checks = append(checks, probes.Probe{Name: "influx", Run: mirror.Probe})
	}
	if store != nil {
		checks = append(checks, probes.Probe{Name: "s3", Run: store.Probe})
	}
	return checks
}

func provideDefinitions(cfg config.Config) (jobs.Definitions, error) {
	return jobs.LoadDefinitions(cfg.Jobs.DefinitionsFile)
}

func provideRegistry(readings ports.ReadingRepository) *jobs.Registry {
	return jobs.DefaultRegistry(readings)
}

func provideRunner(svc *jobs.Service, registry *jobs.Registry, cfg config.Config, store ports.ObjectStore) *jobs.Runner {
	return jobs.NewRunner(svc, registry, cfg.Storage.ResultsDir, cfg.Jobs.PollInterval, store)
}

func provideWatcher(svc *ingest.Service, cfg config.Config) *ingest.Watcher {
	if !cfg.Jobs.WatchUploads {
		return nil
	}
	return ingest.NewWatcher(svc, cfg.Storage.UploadsDir)
}
