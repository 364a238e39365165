package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ueicloud/backend/libs/metrics"
	libredis "ueicloud/backend/libs/redis"
	"ueicloud/backend/services/telemetry-service/internal/config"
	"ueicloud/backend/services/telemetry-service/internal/db"
	httpserver "ueicloud/backend/services/telemetry-service/internal/http"
	"ueicloud/backend/services/telemetry-service/internal/http/handlers"
	"ueicloud/backend/services/telemetry-service/internal/publisher"
	"ueicloud/backend/services/telemetry-service/internal/repository"
	"ueicloud/backend/services/telemetry-service/internal/service"
)

// App wires telemetry service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.DBParams())
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		pub         service.Publisher
	)
	if cfg.RedisEnabled() {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil && !errors.Is(err, libredis.ErrDisabled) {
			sqlDB.Close()
			return nil, err
		}
		if redisClient != nil {
			pub = publisher.NewRedisPublisher(redisClient, cfg.Redis.Channel)
			logger.Info("publishing ingested telemetry", zap.String("channel", cfg.Redis.Channel))
		}
	}

	telemetryRepo := repository.NewTelemetryRepository(sqlDB)
	telemetryService := service.NewTelemetryService(telemetryRepo, pub, logger)

	routes := httpserver.Routes{
		Ingest: handlers.NewIngestHandler(telemetryService, logger),
		Latest: handlers.NewLatestHandler(telemetryService, logger),
		Health: handlers.NewHealthHandler(),
		Ready:  handlers.NewReadyHandler(telemetryService, logger),
	}
	if cfg.Metrics.Enabled {
		metrics.Init(sqlDB)
		routes.Metrics = metrics.Handler()
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger, httpserver.RequestLogger(logger))

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts serving HTTP requests.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
