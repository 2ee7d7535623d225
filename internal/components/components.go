package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bloodLink/internal/api"
	"bloodLink/internal/api/handlers/http/system"
	"bloodLink/internal/config"
	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/internal/metrics"
	"bloodLink/internal/redis"
	"bloodLink/internal/service"
	"bloodLink/internal/storage/postgres"
	"bloodLink/internal/workers"
	"bloodLink/pkg/logger"
)

type Components struct {
	logger      *slog.Logger
	HttpServer  *api.Server
	Postgres    *postgres.Postgres
	Redis       *redis.Redis
	Metrics     *metrics.Metrics
	Maintenance *workers.Maintenance
}

// Engine is the pure matching core built from configuration.
type Engine struct {
	Ranker     *matching.Ranker
	Classifier *matching.Classifier
	Searcher   *matching.Searcher
}

func NewEngine(cfg *config.Config) (*Engine, error) {
	compat, err := matching.NewCompatibility(matching.CompatibilityMode(cfg.Matching.CompatMode))
	if err != nil {
		return nil, fmt.Errorf("compatibility: %w", err)
	}
	distance, err := matching.DistanceFor(matching.DistanceMethod(cfg.Matching.DistanceMethod))
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}
	classifier, err := matching.NewClassifier(UrgencyPolicy(cfg.Urgency))
	if err != nil {
		return nil, fmt.Errorf("urgency policy: %w", err)
	}

	ranker := matching.NewRanker(compat, distance)
	return &Engine{
		Ranker:     ranker,
		Classifier: classifier,
		Searcher:   matching.NewSearcher(ranker, cfg.Matching.DefaultRadiusKm).WithMaxRadius(cfg.Matching.MaxRadiusKm),
	}, nil
}

// UrgencyPolicy keeps the default tiers and takes the response windows from config.
func UrgencyPolicy(u config.UrgencyConfig) matching.UrgencyPolicy {
	windows := map[domain.UrgencyLevel]time.Duration{
		domain.UrgencyCritical: u.Critical,
		domain.UrgencyUrgent:   u.Urgent,
		domain.UrgencyModerate: u.Moderate,
		domain.UrgencyRoutine:  u.Routine,
	}
	policy := matching.DefaultUrgencyPolicy()
	for level, rule := range policy {
		if w := windows[level]; w > 0 {
			rule.Window = w
			policy[level] = rule
		}
	}
	return policy
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	m := metrics.New(cfg.Metrics.Namespace)

	logger.Info("Initializing Postgres")
	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	donorCache := redis.NewDonorCache(redisClient)
	drafts := redis.NewDraftStore(redisClient, cfg.Drafts.KeyPrefix)
	pool := service.NewDonorPool(storage.Donors(), donorCache, cfg.Matching.DonorCacheTTL, logger, m)

	srv := service.NewService(
		service.NewDonorService(storage.Donors(), pool, engine.Searcher, logger, m),
		service.NewRequestService(storage.Requests(), engine.Classifier, logger, m),
		service.NewEmergencyService(drafts, storage.Requests(), pool, engine.Ranker, engine.Classifier,
			service.EmergencyOptions{
				RadiusKm:      cfg.Matching.DefaultRadiusKm,
				DraftTTL:      cfg.Drafts.TTL,
				SubmitTimeout: cfg.Drafts.SubmitTimeout,
			}, logger, m),
		service.NewAdminService(storage.Requests(), storage.Stats(), engine.Classifier, logger),
	)

	maintenance := workers.NewMaintenance(storage.Requests(), pool,
		cfg.Workers.ExpiryInterval, cfg.Workers.PoolRefreshInterval, logger, m)

	httpServer := api.NewServer(ctx, cfg, logger, srv, m, map[string]system.Pinger{
		"postgres": storage,
		"redis":    redisClient,
	})
	logger.Info("Initialized server",
		slog.String("compat_mode", string(engine.Ranker.Compatibility().Mode())),
		slog.Float64("default_radius_km", cfg.Matching.DefaultRadiusKm),
	)

	return &Components{
		logger:      logger,
		HttpServer:  httpServer,
		Postgres:    storage,
		Redis:       redisClient,
		Metrics:     m,
		Maintenance: maintenance,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Shutting down components")

	c.Postgres.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
