package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminrouter "clip_service/internal/admin/router"
	"clip_service/internal/pipeline/app"
	"clip_service/internal/pipeline/domain"
	"clip_service/internal/pipeline/repository"
	"clip_service/pkg"
	"clip_service/pkg/config"
	"clip_service/pkg/database"
	"clip_service/pkg/logger"
	"clip_service/pkg/media"
	testtool "clip_service/pkg/test_tool"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var storageDrivers = []string{"minio", "s3"}

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.Pipeline, config.EnvConfig.PipelineLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Pipeline](config.EnvConfig.Pipeline, config.EnvConfig.PipelineYAMLPath).WithDefaults()
	testtool.StartPprof("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 連線 PostgreSQL
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr:    cfg.PostgreSQL.DSN(),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries", zap.Error(err))
	}

	// 自動遷移 items / assets
	itemRepo := repository.NewItemRepo(db)
	if err := itemRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("auto migrate failed", zap.Error(err))
	}

	// 2. Object store
	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Unable to init object store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	// 3. RabbitMQ
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL(),
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ 連線失敗", zap.Error(err))
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("取得 RabbitMQ Channel 失敗", zap.Error(err))
	}
	defer rabbitChannel.Close()

	queues := domain.NewQueueNames(cfg.RabbitMQ.Queue)
	if err := app.DeclareTopology(rabbitChannel, queues); err != nil {
		logger.Log.Fatal("Queue Declare failed", zap.Error(err))
	}

	// 4. Redis job lock
	rdb, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("Unable to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	locker := database.NewRedisLocker(rdb, "clip:lock:", ownerID())

	// 5. Kafka status events (optional)
	events := repository.NewNopEventRepo()
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("Kafka Writer 建立失敗", zap.Error(err))
		}
		defer writer.Close()
		events = repository.NewKafkaEventRepo(writer)
	}

	// 6. pipeline components
	for _, bin := range []string{cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.YtDlpPath} {
		if !media.IsAvailable(bin) {
			logger.Log.Warn("external tool not found in PATH", zap.String("binary", bin))
		}
	}

	runner := media.NewExecRunner()
	httpClient := &http.Client{Timeout: cfg.Media.DownloadTimeout}
	publisher := app.NewPublisher(store, cfg.Assets.Namespace, cfg.Assets.CDNBaseURL, cfg.Storage.TransferTimeout)

	orchestrator := app.NewOrchestrator(app.Steps{
		Fetcher:   app.NewFetcher(store, cfg.Storage.TransferTimeout),
		Validator: app.NewValidator(runner, cfg.Media.FFprobePath, cfg.Media.ProbeTimeout),
		Waveform:  app.NewWaveformExtractor(runner, cfg.Media.FFmpegPath, cfg.Media.SampleRate, cfg.Media.TranscodeTimeout),
		Image:     app.NewImageRenderer(cfg.Media.BackgroundImage, cfg.Media.BackgroundColor, cfg.Media.WaveColor),
		Video: app.NewVideoRenderer(runner, cfg.Media.FFmpegPath, cfg.Media.BackgroundImage,
			cfg.Media.BackgroundColor, cfg.Media.WaveColor, cfg.Media.TeaserMaxSeconds, cfg.Media.EncodeTimeout),
		Thumbnail: app.NewThumbnailResolver(cfg.Media.ThumbnailSize, cfg.Media.BackgroundColor,
			app.NewDirectURLSource(httpClient),
			app.NewExtractedURLSource(runner, cfg.Media.YtDlpPath, cfg.Media.ProbeTimeout, httpClient),
			app.PreviewImageSource{},
		),
		Publisher: publisher,
	}, itemRepo, events, cfg.WorkDir)

	consumer := app.NewConsumer(rabbitChannel, orchestrator, database.NewRabbitRepository(rabbitChannel), locker,
		queues, cfg.Concurrency, app.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			LockTTL:     cfg.Retry.JobLockTTL,
		})

	// 7. gRPC health + admin http
	health := database.NewHealthServer()
	admin := adminrouter.New(config.EnvConfig.Pipeline)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Start(gctx) })
	g.Go(func() error { return health.Serve(cfg.IP + ":" + cfg.Port) })
	g.Go(func() error { return admin.Listen(cfg.IP + ":" + cfg.AdminPort) })
	g.Go(func() error {
		<-gctx.Done()
		health.SetServing("", false)
		health.Stop()
		return admin.ShutdownWithTimeout(10 * time.Second)
	})
	health.SetServing("", true)

	logger.Log.Info("pipeline service started",
		zap.String("grpc", cfg.IP+":"+cfg.Port),
		zap.String("admin", cfg.AdminPort),
		zap.Int("concurrency", cfg.Concurrency),
	)

	if err := g.Wait(); err != nil {
		logger.Log.Error("pipeline service stopped", zap.Error(err))
		return
	}
	logger.Log.Info("pipeline service stopped")
}

func newObjectStore(ctx context.Context, s config.StorageConfig) (database.ObjectStore, error) {
	driver, ok := pkg.NormalizeChoice(s.Driver, storageDrivers...)
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %q, want one of %v", s.Driver, storageDrivers)
	}

	if driver == "s3" {
		return database.NewS3Client(ctx, database.S3Connection{
			Region:    s.S3.Region,
			Endpoint:  s.S3.Endpoint,
			AccessKey: s.S3.AccessKey,
			SecretKey: s.S3.SecretKey,
			Bucket:    s.S3.Bucket,
		})
	}

	return database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      fmt.Sprintf("%s:%d", s.MinIO.Host, s.MinIO.Port),
		User:          s.MinIO.User,
		Password:      s.MinIO.Password,
		BucketName:    s.MinIO.BucketName,
		UseSSL:        s.MinIO.UseSSL,
		RetryCount:    s.MinIO.RetryCount,
		RetryInterval: time.Duration(s.MinIO.RetryInterval),
	})
}

// ownerID 鎖的持有者識別，只有持有者能釋放
func ownerID() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}
