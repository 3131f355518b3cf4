package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/swipeattend/backend/internal/app/auth"
	appControllers "github.com/swipeattend/backend/internal/app/controllers"
	appMigrations "github.com/swipeattend/backend/internal/app/migrations"
	appRepos "github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/app/repositories/memstore"
	"github.com/swipeattend/backend/internal/app/repositories/mongostore"
	"github.com/swipeattend/backend/internal/app/repositories/pgstore"
	appRoutes "github.com/swipeattend/backend/internal/app/routes"
	appServices "github.com/swipeattend/backend/internal/app/services"
	"github.com/swipeattend/backend/internal/config"
	"github.com/swipeattend/backend/internal/db"
	"github.com/swipeattend/backend/internal/jobs"
	appMiddleware "github.com/swipeattend/backend/internal/middleware"
	pkgAuth "github.com/swipeattend/backend/internal/pkg/auth"
	"github.com/swipeattend/backend/internal/pkg/helpers"
	"github.com/swipeattend/backend/internal/pkg/logger"
	"github.com/swipeattend/backend/internal/pkg/metrics"
)

// DefaultConfigPath is where the YAML configuration is looked up
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                *appRepos.Repositories
	Metrics              *metrics.Metrics
	JWTService           *pkgAuth.JWTService
	Guard                *appAuth.AccessGuard
	Stats                *appServices.StatsAggregator
	Ledger               *appServices.Ledger
	AuthService          *appServices.AuthService
	TeacherService       *appServices.TeacherService
	MaintenanceService   *appServices.MaintenanceService
	AuthController       *appControllers.AuthController
	TeacherController    *appControllers.TeacherController
	AttendanceController *appControllers.AttendanceController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:  logLevel,
		Format: cfg.Logging.Format,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenStore connects the configured record store. PostgreSQL migrations and
// MongoDB indexes are applied before the repositories are returned.
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, error) {
	timeout := cfg.StoreTimeout()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		lgr.Info().Msg("Establishing PostgreSQL connection...")
		pg, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}

		migrator := appMigrations.NewMigrator(pg.Pool, lgr)
		applied, err := migrator.Migrate(ctx, appMigrations.Source(cfg.Database.MigrationsDir))
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Int("applied", applied).Msg("Database migrations up to date")

		return pgstore.New(pg, timeout), nil

	case config.DriverMongoDB:
		lgr.Info().Msg("Establishing MongoDB connection...")
		mdb, err := db.NewMongoDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
			return nil, err
		}
		if err := mdb.EnsureIndexes(ctx); err != nil {
			_ = mdb.Close(context.Background())
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		lgr.Info().Str("database", cfg.Database.MongoDatabase).Msg("Connected to MongoDB")

		return mongostore.New(mdb, timeout), nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using the in-memory record store, data is lost on restart")
		repos, _ := memstore.NewRepositories()
		return repos, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// BuildDependencies initializes services and controllers on top of repos.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Repos: repos, Logger: lgr}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Guard = appAuth.NewAccessGuard(repos.Classes)
	deps.Stats = appServices.NewStatsAggregator(repos, deps.Metrics, logger.Component("stats"))
	deps.Ledger = appServices.NewLedger(repos, deps.Guard, deps.Stats, deps.Metrics, appServices.LedgerConfig{
		BatchConcurrency: cfg.Attendance.BatchConcurrency,
		HistoryLimit:     cfg.Attendance.HistoryLimit,
	}, logger.Component("ledger"))
	deps.AuthService = appServices.NewAuthService(repos, deps.JWTService,
		pkgAuth.NewGoogleVerifier(cfg.Google.ClientID), logger.Component("auth"))
	deps.TeacherService = appServices.NewTeacherService(repos, deps.Guard, logger.Component("teacher"))
	deps.MaintenanceService = appServices.NewMaintenanceService(repos, logger.Component("maintenance"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.TeacherController = appControllers.NewTeacherController(deps.TeacherService, lgr)
	deps.AttendanceController = appControllers.NewAttendanceController(deps.Ledger, lgr)

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(lgr),
	)

	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.TeacherController,
		deps.AttendanceController,
		deps.AuthMiddleware,
		deps.Repos.Ping,
	)

	return router
}

// SetupJobs schedules the periodic stats reconcile and token cleanup.
func SetupJobs(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*jobs.Scheduler, error) {
	scheduler := jobs.NewScheduler(lgr.With().Str("component", "jobs").Logger())

	if err := scheduler.Add(jobs.ReconcileJob, cfg.Jobs.ReconcileSchedule,
		jobs.ReconcileTask(deps.Stats, lgr)); err != nil {
		return nil, err
	}
	if err := scheduler.Add(jobs.TokenCleanupJob, cfg.Jobs.TokenCleanupSchedule,
		jobs.TokenCleanupTask(deps.AuthService, lgr)); err != nil {
		return nil, err
	}

	return scheduler, nil
}
