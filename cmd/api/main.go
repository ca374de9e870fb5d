package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/handlers"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	lg, err := logger.New(cfg.Server.LogJSON, cfg.Server.LogDebug)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	// Initialize embedding provider
	encoder, err := services.NewEncoder(
		cfg.Embedding.Provider,
		cfg.Gemini.APIKey,
		cfg.Embedding.Model,
		cfg.Embedding.Dimension,
		lg,
	)
	if err != nil {
		lg.Fatal("❌ Failed to initialize encoder", zap.Error(err))
	}
	embedder := services.NewEmbeddingProvider(encoder, services.EmbeddingOptions{
		MaxWords:     cfg.Embedding.MaxWords,
		Dimension:    cfg.Embedding.Dimension,
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}, lg)
	lg.Info("✅ Embedding provider initialized",
		zap.String("provider", cfg.Embedding.Provider),
		zap.Int("dimension", embedder.Dimension()),
	)

	// Initialize matcher
	extractor := services.NewTextExtractor(lg)
	matcherOpts := services.MatcherOptions{
		TopN:             cfg.Matcher.TopN,
		PoolSize:         cfg.Matcher.PoolSize,
		CandidateTimeout: cfg.Matcher.CandidateTimeout,
		PreviewLength:    cfg.Matcher.PreviewLength,
	}
	matcherService, err := services.NewMatcherService(extractor, embedder, matcherOpts, lg)
	if err != nil {
		lg.Fatal("❌ Failed to initialize matcher", zap.Error(err))
	}
	defer matcherService.Release()
	lg.Info("✅ Matcher initialized", zap.Int("pool_size", cfg.Matcher.PoolSize))

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 10,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	endpoints := []string{
		"POST /api/v1/match",
		"POST /api/match",
	}

	matchHandler := handlers.NewMatchHandler(matcherService, cfg.Storage.MaxFileSize, lg)

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/match", matchHandler.HandleMatch)
	app.Post("/api/match", matchHandler.HandleMatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var worker services.Worker
	if cfg.Index.Enabled {
		worker = setupIndex(ctx, cfg, lg, api, extractor, embedder, matcherOpts)
		endpoints = append(endpoints,
			"POST /api/v1/documents",
			"GET /api/v1/documents/:id",
			"DELETE /api/v1/documents/:id",
			"POST /api/v1/search",
		)
	}

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Resume Matcher API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		lg.Info("🛑 Shutting down server...")
		if worker != nil {
			worker.Stop()
		}
		cancel()
		if err := app.Shutdown(); err != nil {
			lg.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	lg.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		lg.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// setupIndex wires the optional persistent resume index and registers its routes.
func setupIndex(
	ctx context.Context,
	cfg *config.Config,
	lg *zap.Logger,
	api fiber.Router,
	extractor services.TextExtractor,
	embedder services.EmbeddingProvider,
	matcherOpts services.MatcherOptions,
) services.Worker {
	db, err := config.InitDatabase(cfg)
	if err != nil {
		lg.Fatal("❌ Failed to initialize database", zap.Error(err))
	}
	lg.Info("✅ Database connected and migrated")

	docRepo := repositories.NewDocumentRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		lg.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	qdrantService, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		embedder.Dimension(),
		lg,
	)
	if err != nil {
		lg.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
	}

	if err := qdrantService.InitCollection(ctx); err != nil {
		lg.Fatal("❌ Failed to initialize Qdrant collection", zap.Error(err))
	}
	lg.Info("✅ Qdrant initialized successfully")

	indexService := services.NewIndexService(docRepo, storageService, extractor, embedder, qdrantService, matcherOpts, lg)

	worker := services.NewWorker(docRepo, indexService, cfg.Worker.Concurrency, cfg.Worker.PollInterval, lg)
	worker.Start(ctx)
	lg.Info("✅ Index worker started")

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, worker, cfg.Storage.MaxFileSize, lg)
	documentHandler := handlers.NewDocumentHandler(docRepo, indexService)
	searchHandler := handlers.NewSearchHandler(indexService)

	api.Post("/documents", uploadHandler.HandleUpload)
	api.Get("/documents/:id", documentHandler.HandleGetDocument)
	api.Delete("/documents/:id", documentHandler.HandleDeleteDocument)
	api.Post("/search", searchHandler.HandleSearch)

	return worker
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
