package di

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fsmviz/application/ports"
	"fsmviz/application/services"
	"fsmviz/domain/core/layout"
	"fsmviz/infrastructure/config"
	redisrepo "fsmviz/infrastructure/persistence/redis"
	"fsmviz/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideRedisClient creates the Redis client backing graph persistence
func ProvideRedisClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ProvideGraphRepository creates the graph repository
func ProvideGraphRepository(client *goredis.Client) ports.GraphRepository {
	return redisrepo.NewFromClient(client)
}

// ProvideMetrics creates the metrics registry
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics("fsmviz")
}

// ProvideLayoutEngine creates the layout engine from configuration
func ProvideLayoutEngine(cfg *config.Config) *layout.Engine {
	return &layout.Engine{
		Iterations: cfg.LayoutIterations,
		Margin:     cfg.CanvasMargin,
	}
}

// ProvideGraphService creates the graph working-set service
func ProvideGraphService(repo ports.GraphRepository, logger *zap.Logger, metrics *observability.Metrics) *services.GraphService {
	return services.NewGraphService(repo, logger, metrics)
}

// ProvideSessionService creates the edit-session service
func ProvideSessionService(cfg *config.Config, graphs *services.GraphService, logger *zap.Logger) *services.SessionService {
	if cfg.ReadOnly {
		return services.NewReadOnlySessionService(graphs, logger)
	}
	return services.NewSessionService(graphs, logger)
}
