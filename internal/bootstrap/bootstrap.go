package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/atlasedu/rollcall/internal/app/controllers"
	appMigrations "github.com/atlasedu/rollcall/internal/app/migrations"
	appRepos "github.com/atlasedu/rollcall/internal/app/repositories"
	appRoutes "github.com/atlasedu/rollcall/internal/app/routes"
	appServices "github.com/atlasedu/rollcall/internal/app/services"
	"github.com/atlasedu/rollcall/internal/config"
	"github.com/atlasedu/rollcall/internal/db"
	appMiddleware "github.com/atlasedu/rollcall/internal/middleware"
	pkgAuth "github.com/atlasedu/rollcall/internal/pkg/auth"
	"github.com/atlasedu/rollcall/internal/pkg/logger"
	"github.com/atlasedu/rollcall/internal/pkg/scheduler"
	"github.com/atlasedu/rollcall/internal/pkg/websocket"
	"github.com/atlasedu/rollcall/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	SessionService    appServices.SessionService
	CheckInService    appServices.CheckInService
	SessionController *appControllers.SessionController
	CheckInController *appControllers.CheckInController
	LiveController    *appControllers.LiveController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	CheckInLimiter    *appMiddleware.TokenBucket
	Repos             *appRepos.Repositories
	JWTService        *pkgAuth.JWTService
	Registry          *scheduler.Registry
	Scheduler         scheduler.Scheduler
	Hub               *websocket.Hub
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	// Seed the demo roster in development mode only
	if strings.ToLower(cfg.Server.Mode) != "production" {
		if err := seed.CreateDefaultData(context.Background(), database.Pool, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenExp:    cfg.JWTTokenExpiration(),
		TokenIssuer: cfg.JWT.Issuer,
	})

	deps.Registry = scheduler.NewRegistry()
	switch cfg.Scheduler.Backend {
	case config.SchedulerBackendMemory:
		deps.Scheduler = scheduler.NewMemory(deps.Registry, lgr)
	default:
		deps.Scheduler = scheduler.NewPostgres(dbPool, deps.Registry, scheduler.PostgresConfig{
			PollInterval: cfg.SchedulerPollInterval(),
			BatchSize:    cfg.Scheduler.BatchSize,
		}, lgr)
	}

	deps.Hub = websocket.NewHub(lgr)

	deps.SessionService = appServices.NewSessionService(
		deps.Repos.SessionRepository,
		deps.Scheduler,
		cfg.SessionDuration(),
		lgr,
	)
	deps.CheckInService = appServices.NewCheckInService(
		deps.Repos.SessionRepository,
		deps.Repos.RecordRepository,
		deps.Repos.EnrollmentRepository,
		deps.Hub,
		cfg.Attendance.DefaultRadiusMeters,
		lgr,
	)

	// The scheduler fires session transitions by handler name
	deps.Registry.Register(appServices.HandlerActivateSession, func(ctx context.Context, args map[string]string) error {
		return deps.SessionService.Activate(ctx, args[appServices.TaskArgSessionID])
	})
	deps.Registry.Register(appServices.HandlerEndSession, func(ctx context.Context, args map[string]string) error {
		return deps.SessionService.End(ctx, args[appServices.TaskArgSessionID])
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.CheckInLimiter = appMiddleware.NewTokenBucket(cfg.RateLimit.CheckInPerMinute, cfg.RateLimit.CheckInPerMinute)

	deps.SessionController = appControllers.NewSessionController(deps.SessionService, cfg.Attendance.CodeLength)
	deps.CheckInController = appControllers.NewCheckInController(deps.CheckInService)
	deps.LiveController = appControllers.NewLiveController(deps.Hub, deps.SessionService, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register request validators: %w", err)
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.SessionController,
		deps.CheckInController,
		deps.LiveController,
		deps.AuthMiddleware,
		deps.CheckInLimiter,
	)

	return router, nil
}
