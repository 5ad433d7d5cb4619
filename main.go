package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/katatrina/roxot-collector/api"
	"github.com/katatrina/roxot-collector/internal/adapter"
	"github.com/katatrina/roxot-collector/internal/delivery"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/metric"
	"github.com/katatrina/roxot-collector/internal/scheduler"
	"github.com/katatrina/roxot-collector/internal/session"
	"github.com/katatrina/roxot-collector/internal/storage"
	"github.com/katatrina/roxot-collector/internal/util"
	"github.com/katatrina/roxot-collector/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	// registers the "roxot" adapter
	_ "github.com/katatrina/roxot-collector/internal/analytics"
)

var interruptSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGINT,
}

func main() {
	// Load configurations
	config, err := util.LoadConfig("./app.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file 😣")
	}

	if config.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", config.LogLevel).Msg("invalid log level 😣")
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("configurations loaded successfully ✅")

	ctx, stop := signal.NotifyContext(context.Background(), interruptSignals...)
	defer stop()

	redisDb := redis.NewClient(&redis.Options{
		Addr:     config.RedisServerAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err = redisDb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis 😣")
	}
	log.Info().Msg("connected to redis ✅")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := metric.NewMetrics(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics 😣")
	}

	sched, err := scheduler.NewGocron()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler 😣")
	}
	sched.Start()

	client := delivery.NewClient(
		delivery.WithScheme(config.DeliveryScheme),
		delivery.WithTimeout(config.DeliveryTimeout),
	)

	waitGroup, ctx := errgroup.WithContext(ctx)

	var sender delivery.Sender = client
	var taskInspector worker.TaskInspector
	if config.DeliveryMode == util.DeliveryModeQueue {
		redisOpt := asynq.RedisClientOpt{
			Addr:     config.RedisServerAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}

		distributor := worker.NewTaskDistributor(redisOpt)
		sender = worker.NewQueueSender(distributor, config.DeliveryMaxRetry)
		taskInspector = worker.NewTaskInspector(redisOpt)

		runTaskProcessor(ctx, waitGroup, redisOpt, client)

		defer func() {
			_ = distributor.Close()
			_ = taskInspector.Close()
		}()
		log.Info().Msg("deliveries go through the task queue ✅")
	}

	sseServer := event.NewSSEServer()
	go sseServer.Run()

	sessions := session.NewManager(adapter.Default, storage.NewVisitorStoreFactory(redisDb, config.VisitorTTL), adapter.Deps{
		Scheduler: sched,
		Fetcher:   client,
		Sender:    sender,
		Metrics:   metrics,
		Tap:       sseServer,
		Settings: adapter.Settings{
			EventServer:  config.EventServer,
			ConfigServer: config.ConfigServer,
			FlushDelay:   config.FlushDelay,
			AuctionTTL:   config.AuctionTTL,
			MaxQueueSize: config.MaxQueueSize,
		},
	})

	cancelSweep, err := sched.Every(config.SessionSweepInterval, func() {
		sessions.SweepIdle(context.Background(), config.SessionIdleTimeout)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule idle session sweep 😣")
	}

	server := api.NewServer(&config, sessions, sseServer, registry, taskInspector)
	waitGroup.Go(func() error {
		return server.Start(ctx, config.HTTPServerAddress)
	})

	err = waitGroup.Wait()

	// Flush whatever the open sessions still hold before the transports go away.
	cancelSweep()
	sessions.CloseAll(context.Background())
	sseServer.Close()
	if stopErr := sched.Stop(); stopErr != nil {
		log.Error().Err(stopErr).Msg("failed to stop scheduler")
	}
	_ = client.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("collector stopped with error 😣")
	}
	log.Info().Msg("collector stopped 👋")
}

func runTaskProcessor(ctx context.Context, waitGroup *errgroup.Group, redisOpt asynq.RedisClientOpt, sender delivery.Sender) {
	taskProcessor := worker.NewRedisTaskProcessor(redisOpt, sender)

	log.Info().Msg("start task processor")
	if err := taskProcessor.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start task processor 😣")
	}

	waitGroup.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown task processor")

		taskProcessor.Shutdown()
		log.Info().Msg("task processor is stopped")
		return nil
	})
}
