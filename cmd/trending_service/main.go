package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip_service/internal/admin/handlers"
	adminrouter "clip_service/internal/admin/router"
	"clip_service/internal/trending/app"
	"clip_service/internal/trending/repository"
	"clip_service/pkg/config"
	"clip_service/pkg/database"
	"clip_service/pkg/logger"
	testtool "clip_service/pkg/test_tool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.Trending, config.EnvConfig.TrendingLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Trending](config.EnvConfig.Trending, config.EnvConfig.TrendingYAMLPath).WithDefaults()
	testtool.StartPprof("localhost:6061")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 連線 PostgreSQL (pgx pool)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    cfg.PostgreSQL.DSN(),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries", zap.Error(err))
	}
	defer pool.Close()

	// 2. Redis single-flight lock
	rdb, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("Unable to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	host, _ := os.Hostname()
	locker := database.NewRedisLocker(rdb, "clip:lock:", fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]))

	// 3. Mongo run reports (optional)
	reports := repository.NewNopReportRepo()
	if cfg.Mongo.URI != "" {
		mdb, err := database.NewMongoDB(ctx, database.Connection{
			ConnectStr:    cfg.Mongo.URI,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
		}, cfg.Mongo.Database)
		if err != nil {
			logger.Log.Fatal("Unable to connect to mongo", zap.Error(err))
		}
		defer mdb.Close(context.Background())
		if _, err := mdb.EnsureIndex(ctx, repository.ReportCollection, repository.ReportIndex); err != nil {
			logger.Log.Warn("ensure run report index", zap.Error(err))
		}
		reports = repository.NewMongoReportRepo(mdb.Database)
	}

	engine := app.NewEngine(repository.NewScoreRepo(pool), reports, locker, cfg.LockTTL)

	scheduler, err := app.NewScheduler(ctx, cfg.Schedule, engine)
	if err != nil {
		logger.Log.Fatal("invalid schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
	}
	scheduler.Start()
	logger.Log.Info("trending scheduler started", zap.String("schedule", cfg.Schedule))

	// 4. admin http，含手動觸發
	admin := adminrouter.New(config.EnvConfig.Trending)
	adminrouter.RegisterTrendingRoutes(admin, handlers.NewTrendingHandler(engine), []byte(cfg.AdminSecret))
	if cfg.AdminSecret == "" {
		logger.Log.Warn("admin_secret is empty, /trending/run is unauthenticated")
	}

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down trending service")
		<-scheduler.Stop().Done()
		if err := admin.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Warn("admin shutdown", zap.Error(err))
		}
	}()

	if err := admin.Listen(":" + cfg.AdminPort); err != nil {
		logger.Log.Error("admin server stopped", zap.Error(err))
	}
}
