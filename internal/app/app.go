package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	standuphttp "github.com/standsync/server/internal/adapter/inbound/http/standup"
	"github.com/standsync/server/internal/adapter/outbound/notify"
	"github.com/standsync/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/standsync/server/internal/adapter/outbound/redis"
	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/domain/standup"
	"github.com/standsync/server/internal/model"
	"github.com/standsync/server/internal/shared/cache"
	"github.com/standsync/server/internal/shared/config"
	"github.com/standsync/server/internal/shared/database"
	"github.com/standsync/server/internal/shared/logger"
	"github.com/standsync/server/internal/shared/metrics"
	"github.com/standsync/server/internal/shared/middleware"
)

// App wires the standup scheduling core to its adapters and triggers.
type App struct {
	cfg       *config.Config
	logger    *logger.Logger
	zapLogger *zap.Logger

	db       *gorm.DB
	redis    goredis.UniversalClient
	router   *gin.Engine
	service  *standup.Service
	jobQueue *redisadapter.JobQueue
	cron     *cron.Cron
}

// New assembles the application.
func New(cfg *config.Config) (*App, error) {
	log := ProvideLogger(cfg)
	zapLog, err := ProvideZapLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := ProvideDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Team{},
		&model.StandupConfig{},
		&model.ConfigMember{},
		&model.StandupInstance{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	redisClient, err := ProvideRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	m := ProvideMetrics()
	bus := ProvideEventBus(zapLog)

	// Outbound adapters
	teams := postgres.NewTeamAdapter(db)
	instances := postgres.NewInstanceAdapter(db)
	responses := postgres.NewResponseReaderAdapter(db)
	notifier := notify.NewLoggingNotifier(zapLog)

	// Domain
	domainCfg := ProvideDomainConfig(cfg)
	factory := standup.NewFactory(teams, instances, zapLog)
	lifecycle := standup.NewLifecycle(instances, bus, m, zapLog)
	status := standup.NewStatus(responses)

	// The scheduler arms callbacks through the queue; the queue fires
	// them back through the service. The handler is bound after the
	// service exists to break the cycle.
	jobQueue := ProvideJobQueue(redisClient, cfg, m, zapLog)
	scheduler := standup.NewScheduler(teams, factory, jobQueue, domainCfg, m, zapLog)
	recovery := standup.NewRecovery(teams, instances, factory, scheduler, lifecycle, m, zapLog)
	service := standup.NewService(scheduler, recovery, lifecycle, status, teams, instances, notifier, zapLog)
	jobQueue.SetHandler(service.HandleTimedJob)

	bus.Register(standup.NewNotificationDispatcher(instances, notifier, zapLog))

	app := &App{
		cfg:       cfg,
		logger:    log,
		zapLogger: zapLog,
		db:        db,
		redis:     redisClient,
		service:   service,
		jobQueue:  jobQueue,
	}

	if err := app.buildCron(); err != nil {
		return nil, err
	}
	app.buildRouter(m)
	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Start launches the background components.
func (a *App) Start() {
	a.jobQueue.Start()
	a.cron.Start()
	a.zapLogger.Info("application started",
		zap.String("daily_run_spec", a.cfg.Scheduler.DailyRunSpec),
		zap.String("recovery_spec", a.cfg.Scheduler.RecoverySpec),
	)
}

// Stop shuts down background components and closes connections.
func (a *App) Stop() {
	cronCtx := a.cron.Stop()
	<-cronCtx.Done()
	a.jobQueue.Stop()

	if err := database.Close(a.db); err != nil {
		a.zapLogger.Warn("close database", zap.Error(err))
	}
	if err := cache.Close(a.redis); err != nil {
		a.zapLogger.Warn("close redis", zap.Error(err))
	}
	a.zapLogger.Info("application stopped")
}

func (a *App) buildRouter(m *metrics.Metrics) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Recovery(a.zapLogger))
	router.Use(middleware.Logging(a.logger))
	router.Use(middleware.Metrics(m))
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	standuphttp.NewHandler(a.service).RegisterRoutes(api)

	a.router = router
}

// buildCron arms the in-process triggers: the daily scheduling run, the
// hourly recovery sweep (missed creation + overdue transitions), and the
// retention sweep when configured. Every trigger is idempotent, so
// duplicate firings across restarts or replicas are harmless.
func (a *App) buildCron() error {
	c := cron.New()

	_, err := c.AddFunc(a.cfg.Scheduler.DailyRunSpec, func() {
		ctx := context.Background()
		today := schedule.DateOf(time.Now().UTC())
		if _, err := a.service.RunForDate(ctx, today); err != nil {
			a.zapLogger.Error("daily scheduling run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid daily run spec %q: %w", a.cfg.Scheduler.DailyRunSpec, err)
	}

	_, err = c.AddFunc(a.cfg.Scheduler.RecoverySpec, func() {
		ctx := context.Background()
		today := schedule.DateOf(time.Now().UTC())
		if _, err := a.service.RecoverMissed(ctx, today); err != nil {
			a.zapLogger.Error("recovery sweep failed", zap.Error(err))
		}
		if err := a.service.CheckOverdue(ctx); err != nil {
			a.zapLogger.Error("overdue check failed", zap.Error(err))
		}
		if days := a.cfg.Scheduler.RetentionDays; days > 0 {
			cutoff := today.AddDays(-days)
			if _, err := a.service.ArchiveOlderThan(ctx, cutoff); err != nil {
				a.zapLogger.Error("retention sweep failed", zap.Error(err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("invalid recovery spec %q: %w", a.cfg.Scheduler.RecoverySpec, err)
	}

	a.cron = c
	return nil
}
