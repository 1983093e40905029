package container

import (
	"context"
	"fmt"

	"studentperf/adapters/artifacts"
	"studentperf/adapters/postgres"
	"studentperf/app"
	"studentperf/internal/cache"
	"studentperf/internal/config"
	"studentperf/internal/errors"
	"studentperf/internal/metrics"
	"studentperf/internal/migration"
	"studentperf/ports"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB        *sqlx.DB
	Metrics   *metrics.Metrics
	Cache     *cache.ModelCache
	Artifacts *artifacts.Store

	// Repositories (data access layer)
	DirectionRepo  ports.DirectionRepository
	StudentRepo    ports.StudentRepository
	ModelRepo      ports.ModelRepository
	PredictionRepo ports.PredictionRepository

	// Services
	Loader      *app.ModelLoader
	Training    *app.TrainingService
	Predictions *app.PredictionService
	Analysis    *app.AnalysisService
	Models      *app.ModelService
	Import      *app.ImportService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	m := metrics.New()
	return &Container{
		Config:  cfg,
		Metrics: m,
		Cache:   cache.New(cfg.Cache.Size, cfg.Cache.TTL, m),
	}, nil
}

// Open connects to the configured database and initializes every component
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := postgres.Connect(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	c.initRepositories()

	store, err := artifacts.Open(ctx, c.Config.Models.Dir)
	if err != nil {
		return errors.Wrap(err, "failed to open artifact store")
	}
	c.Artifacts = store

	c.initServices()

	log.Debug().
		Str("driver", c.Config.Database.Driver).
		Str("models_dir", c.Config.Models.Dir).
		Msg("container initialized")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.DirectionRepo = postgres.NewDirectionRepository(c.DB)
	c.StudentRepo = postgres.NewStudentRepository(c.DB)
	c.ModelRepo = postgres.NewModelRepository(c.DB)
	c.PredictionRepo = postgres.NewPredictionRepository(c.DB)
}

// initServices wires the application services
func (c *Container) initServices() {
	split := app.SplitConfig{
		TestFraction:      c.Config.Training.TestFraction,
		Seed:              c.Config.Training.Seed,
		GradientTolerance: c.Config.Training.GradientTolerance,
	}
	c.Loader = app.NewModelLoader(c.ModelRepo, c.Artifacts, c.Cache)
	c.Training = app.NewTrainingService(c.StudentRepo, c.ModelRepo, c.Artifacts, c.Loader, c.Metrics, split)
	c.Predictions = app.NewPredictionService(c.StudentRepo, c.PredictionRepo, c.Loader, c.Metrics)
	c.Analysis = app.NewAnalysisService(c.ModelRepo, c.StudentRepo, c.PredictionRepo, c.Loader)
	c.Models = app.NewModelService(c.ModelRepo, c.Artifacts, c.Loader, c.Metrics)
	c.Import = app.NewImportService(c.DirectionRepo, c.StudentRepo)
}

// Migrate creates the schema for the configured dialect
func (c *Container) Migrate(ctx context.Context) error {
	dialect, err := migration.DialectFor(c.Config.Database.Driver)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	runner := migration.NewRunner(dialect)
	if err := runner.Run(ctx, c.DB); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	log.Info().Str("version", runner.Version()).Msg("schema up to date")
	return nil
}

// Close flushes metrics to the configured textfile and closes the database
func (c *Container) Close() error {
	if path := c.Config.Metrics.Textfile; path != "" {
		if err := c.Metrics.WriteTextfile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("metrics flush failed")
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
