package setup

import (
	"context"
	"fmt"
	"log"

	"recky/backend/internal/config"
	"recky/backend/internal/coordinator"
	"recky/backend/internal/database"
	"recky/backend/internal/directory"
	"recky/backend/internal/engagement"
	"recky/backend/internal/group"
	"recky/backend/internal/handler"
	"recky/backend/internal/ledger"
	"recky/backend/internal/logging"
	"recky/backend/internal/relationship"
	"recky/backend/internal/store"
	"recky/backend/internal/store/memory"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App bundles the configured services shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    store.Store
	Users    directory.Directory
	Services handler.Services
	db       *gorm.DB
	redis    rueidis.Client
}

// InitializeApp loads configuration from configDir and the environment and
// wires every service.
func InitializeApp(ctx context.Context, configDir string) (*App, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}

	return New(ctx, cfg, logger)
}

// New wires services from an already loaded configuration. Without
// DATABASE_URL the data lives in process memory; without REDIS_ADDR display
// names are read from the store on every lookup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	var primary store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, logger.Named("database"))
		if err != nil {
			return nil, err
		}
		app.db = db
		primary = database.NewStore(db)
	} else {
		logger.Warn("DATABASE_URL is not set, using the in-memory store")
		primary = memory.New()
	}

	var users directory.Directory = directory.New(primary)
	if cfg.RedisAddr != "" {
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress:  []string{cfg.RedisAddr},
			DisableCache: true,
		})
		if err != nil {
			app.Cleanup(ctx)
			return nil, fmt.Errorf("failed to create Redis client: %w", err)
		}
		app.redis = client
		users = directory.NewCached(users, client, cfg.NameCacheTTL, logger)
	}

	s := store.WithRetry(primary, cfg.ConflictRetries)
	rel := relationship.NewService(s, users, logger)
	l := ledger.New(s, users, logger)
	es := engagement.NewStore(s, logger)
	groups := group.NewService(s, logger)
	coord := coordinator.New(s, l, es, rel, groups, users, logger,
		coordinator.WithFanoutConcurrency(cfg.FanoutConcurrency))

	app.Store = s
	app.Users = users
	app.Services = handler.Services{
		Relationships: rel,
		Ledger:        l,
		Coordinator:   coord,
		Engagement:    es,
		Groups:        groups,
		Users:         users,
	}

	logger.Info("Application initialized",
		zap.Bool("postgres", app.db != nil),
		zap.Bool("redis", app.redis != nil),
		zap.Int("conflictRetries", cfg.ConflictRetries),
		zap.Int("fanoutConcurrency", cfg.FanoutConcurrency))
	return app, nil
}

// Cleanup releases connections. Errors are logged, not returned.
func (a *App) Cleanup(_ context.Context) {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("Failed to close database connection", zap.Error(err))
			}
		}
	}
	if err := a.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
}
