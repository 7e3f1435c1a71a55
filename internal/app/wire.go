//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/standsync/server/internal/domain/standup"

	// Inbound adapters
	standuphttp "github.com/standsync/server/internal/adapter/inbound/http/standup"

	// Outbound adapters
	redisadapter "github.com/standsync/server/internal/adapter/outbound/redis"

	// Infrastructure
	"github.com/standsync/server/internal/infra/events"
	"github.com/standsync/server/internal/shared/config"
	"github.com/standsync/server/internal/shared/logger"
	"github.com/standsync/server/internal/shared/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     goredis.UniversalClient
	Logger    *logger.Logger
	ZapLogger *zap.Logger
	Metrics   *metrics.Metrics
	Bus       *events.Bus

	// Domain
	Service    *standup.Service
	Dispatcher *standup.NotificationDispatcher
	JobQueue   *redisadapter.JobQueue

	// HTTP Handlers
	StandupHandler *standuphttp.Handler
}

// InitializeDependencies creates all dependencies using Wire. The job
// queue comes back without a handler; callers bind Service.HandleTimedJob
// with SetHandler before starting it.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}
