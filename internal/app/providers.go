package app

import (
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	standuphttp "github.com/standsync/server/internal/adapter/inbound/http/standup"
	"github.com/standsync/server/internal/adapter/outbound/notify"
	"github.com/standsync/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/standsync/server/internal/adapter/outbound/redis"
	"github.com/standsync/server/internal/domain/standup"
	"github.com/standsync/server/internal/infra/events"
	"github.com/standsync/server/internal/port/inbound"
	"github.com/standsync/server/internal/port/outbound"
	"github.com/standsync/server/internal/shared/cache"
	"github.com/standsync/server/internal/shared/config"
	"github.com/standsync/server/internal/shared/database"
	"github.com/standsync/server/internal/shared/logger"
	"github.com/standsync/server/internal/shared/metrics"
)

// InfraSet provides shared infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideLogger,
	ProvideZapLogger,
	ProvideMetrics,
	ProvideEventBus,
	ProvideJobQueue,
	wire.Bind(new(outbound.JobScheduler), new(*redisadapter.JobQueue)),
)

// StandupSet provides the standup scheduling domain.
var StandupSet = wire.NewSet(
	postgres.NewTeamAdapter,
	wire.Bind(new(outbound.TeamStore), new(*postgres.TeamAdapter)),
	postgres.NewInstanceAdapter,
	wire.Bind(new(outbound.InstanceStore), new(*postgres.InstanceAdapter)),
	postgres.NewResponseReaderAdapter,
	wire.Bind(new(outbound.ResponseReader), new(*postgres.ResponseReaderAdapter)),
	notify.NewLoggingNotifier,
	wire.Bind(new(outbound.Notifier), new(*notify.LoggingNotifier)),
	ProvideDomainConfig,
	standup.NewFactory,
	standup.NewLifecycle,
	standup.NewStatus,
	standup.NewScheduler,
	standup.NewRecovery,
	standup.NewService,
	wire.Bind(new(inbound.StandupScheduling), new(*standup.Service)),
	standup.NewNotificationDispatcher,
)

// HandlerSet provides the HTTP handlers.
var HandlerSet = wire.NewSet(
	standuphttp.NewHandler,
)

// AppSet is the master provider set that includes all dependencies.
var AppSet = wire.NewSet(
	InfraSet,
	StandupSet,
	HandlerSet,
)

// ProvideDatabase creates a database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.New(&cfg.Database)
}

// ProvideRedisClient creates a Redis client. The timed job queue needs
// it, so a connection failure here is fatal.
func ProvideRedisClient(cfg *config.Config) (goredis.UniversalClient, error) {
	return cache.NewRedisClient(&cfg.Redis)
}

// ProvideLogger creates a logger instance.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("standsync")
}

// ProvideJobQueue creates the Redis-backed timed job queue. The caller
// attaches the service handler with SetHandler before Start.
func ProvideJobQueue(client goredis.UniversalClient, cfg *config.Config, m *metrics.Metrics, zapLog *zap.Logger) *redisadapter.JobQueue {
	return redisadapter.NewJobQueue(client, cfg.Scheduler.JobPollInterval, m, zapLog)
}

// ProvideEventBus creates the domain event bus.
func ProvideEventBus(zapLog *zap.Logger) *events.Bus {
	return events.NewBus(zapLog)
}

// ProvideDomainConfig maps application config onto the domain config.
func ProvideDomainConfig(cfg *config.Config) *standup.Config {
	return &standup.Config{
		WorkerCount: cfg.Scheduler.WorkerCount,
	}
}
