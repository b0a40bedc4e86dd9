package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/auth"
	"github.com/dataprep/ingest/internal/config"
	"github.com/dataprep/ingest/internal/handler"
	"github.com/dataprep/ingest/internal/logging"
	"github.com/dataprep/ingest/internal/middleware"
	"github.com/dataprep/ingest/internal/store"
	ws "github.com/dataprep/ingest/internal/websocket"
	"github.com/dataprep/ingest/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	printToken := flag.String("print-token", "", "Print a signed token for the given user and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of a printed token (0 = no expiry)")
	stepDelay := flag.Duration("step-delay", 500*time.Millisecond, "Pause between two analysis status changes")
	flag.Parse()

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT secret is not configured (JWT_SECRET)")
	}

	if *printToken != "" {
		token, err := auth.GenerateToken(cfg.JWT.Secret, *printToken, "", *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(logger)
	go hub.Run(hubCtx)

	var (
		datasets    store.Store
		dispatcher  worker.Dispatcher
		redisClient *redis.Client
		workerSrv   *asynq.Server
	)

	if cfg.Redis.Addr != "" {
		// Initialize Redis client
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis not available", zap.Error(err))
		}

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()

		datasets = store.NewRedisStore(redisClient)
		dispatcher = worker.NewAsynqDispatcher(asynqClient)
		analysisWorker := worker.NewAnalysisWorker(datasets, *stepDelay, logger).WithNotifier(hub)
		workerSrv = startWorkerServer(redisOpt, analysisWorker, logger)
	} else {
		logger.Info("No redis configured, keeping datasets in memory")
		datasets = store.NewMemoryStore()
		analysisWorker := worker.NewAnalysisWorker(datasets, *stepDelay, logger).WithNotifier(hub)
		dispatcher = worker.NewLocalDispatcher(analysisWorker, logger)
	}

	app := handler.NewApp(handler.AppConfig{
		Store:         datasets,
		Dispatcher:    dispatcher,
		Auth:          middleware.NewAuthMiddleware(cfg.JWT.Secret),
		RateLimiter:   middleware.NewRateLimiter(redisClient, logger),
		Hub:           hub,
		UploadPerHour: cfg.RateLimit.UploadPerHour,
		AccessLog:     cfg.Server.Env == "development",
		Logger:        logger,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Shutting down server...")
		stopHub()
		if workerSrv != nil {
			workerSrv.Shutdown()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	logger.Info("Server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func startWorkerServer(redisOpt asynq.RedisClientOpt, analysisWorker *worker.AnalysisWorker, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				worker.QueueAnalysis: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TaskTypeAnalyze, analysisWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		logger.Fatal("Asynq worker error", zap.Error(err))
	}
	return srv
}
