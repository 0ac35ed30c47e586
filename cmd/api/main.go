package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"exam-agent/internal/adapter"
	"exam-agent/internal/adapter/llm"
	"exam-agent/internal/adapter/retrieval"
	"exam-agent/internal/cache"
	"exam-agent/internal/config"
	"exam-agent/internal/database"
	"exam-agent/internal/domain"
	"exam-agent/internal/handler"
	"exam-agent/internal/logger"
	"exam-agent/internal/middleware"
	"exam-agent/internal/observability"
	"exam-agent/internal/repository"
	"exam-agent/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	shutdownTracing := observability.InitTracing(context.Background(), cfg.Tracing, cfg.Logger.Env)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			appLogger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.NewDB(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	exerciseRepository := repository.NewExerciseDatabaseAdapter(db)
	resultRepository := repository.NewResultDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Model clients are shared by every request.
	llmHTTPClient := &http.Client{Timeout: cfg.LLM.Timeout}
	generator, err := llm.NewOpenAIStreamGenerator(cfg.LLM, llmHTTPClient)
	if err != nil {
		appLogger.Fatal("Failed to create stream generator", zap.Error(err))
	}
	completerModel, err := llm.NewCompleterModel(cfg.LLM, llmHTTPClient)
	if err != nil {
		appLogger.Fatal("Failed to create completer model", zap.Error(err))
	}
	completer := llm.NewLangchainCompleter(completerModel, cfg.LLM.Temperature)
	appLogger.Info("LLM clients initialized",
		zap.String("model", cfg.LLM.Model),
		zap.String("completer", cfg.LLM.Completer.Provider))

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, retrieval cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Successfully connected to Redis")
		}
	}

	retriever := newRetriever(cfg, redisClient, appLogger)
	var tidier domain.Completer = completer
	if cfg.Retrieval.SkipTidy {
		tidier = nil
	}

	// Initialize services
	contexts := service.NewContextRetriever(retriever, tidier)
	backfill := service.NewBackfillService(completer, cfg.Backfill.Concurrency, cfg.Backfill.Timeout)
	persistence := service.NewPersistenceService(exerciseRepository, txManager, cfg.Persistence.Timeout)
	pipeline := service.NewGenerationPipeline(exerciseRepository, contexts, generator, backfill, persistence, cfg.LLM.DebugPrompts)
	analyzer := service.NewMaterialAnalyzer(completer)
	exercises := service.NewExerciseService(exerciseRepository, resultRepository, txManager)

	exerciseHandler := handler.NewExerciseHandler(pipeline, analyzer, exercises, cfg.DevUserID)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	exerciseHandler.Register(app.Group("/api"))

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Persistence.Timeout+5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

// newRetriever builds the knowledge-base retriever. Any setup failure
// degrades to no retrieval.
func newRetriever(cfg *config.Config, redisClient *redis.Client, appLogger *zap.Logger) domain.Retriever {
	if !cfg.Retrieval.Enabled {
		appLogger.Info("Knowledge-base retrieval disabled")
		return retrieval.NoopRetriever{}
	}
	embedder, err := retrieval.NewEmbedder(cfg.Embedding)
	if err != nil {
		appLogger.Error("Failed to create embedder, retrieval disabled", zap.Error(err))
		return retrieval.NoopRetriever{}
	}
	qdrantRetriever, err := retrieval.NewQdrantRetriever(cfg.Retrieval, embedder)
	if err != nil {
		appLogger.Error("Failed to create Qdrant retriever, retrieval disabled", zap.Error(err))
		return retrieval.NoopRetriever{}
	}
	appLogger.Info("Qdrant retriever initialized",
		zap.String("collection", cfg.Retrieval.Collection),
		zap.Int("top_k", cfg.Retrieval.TopK))
	if redisClient == nil {
		return qdrantRetriever
	}
	return retrieval.NewCachedRetriever(qdrantRetriever, adapter.NewRedisCacheAdapter(redisClient), cfg.Retrieval.CacheTTL)
}
