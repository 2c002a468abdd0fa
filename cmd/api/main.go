package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/handlers"
	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("config loaded", zap.String("env", cfg.Server.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	jobRepo := repositories.NewJobRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("failed to create upload directory", zap.Error(err))
	}

	// Gemini is only needed for the vision fallback, categorization and embeddings.
	var gemini services.GeminiService
	if cfg.Gemini.VisionEnabled || cfg.Gemini.CategorizeEnabled || cfg.Qdrant.Enabled {
		gemini, err = services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			EmbedModel:  cfg.Gemini.EmbedModel,
			MinInterval: cfg.Gemini.VisionMinInterval,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize gemini", zap.Error(err))
		}
		log.Info("gemini initialized", zap.String("model", cfg.Gemini.Model))
	}

	var vision services.VisionExtractor
	if cfg.Gemini.VisionEnabled {
		vision = gemini
	}

	var categorizer services.Categorizer
	if cfg.Gemini.CategorizeEnabled {
		categorizer = gemini
	}

	screener, err := services.BuildScreener(services.ScreenerOptions{
		Readability: services.ReadabilityOptions{
			MinTextLength: cfg.Extraction.MinTextLength,
			MinAlnumRatio: cfg.Extraction.MinAlnumRatio,
		},
		NameScanLines:   cfg.Extraction.NameScanLines,
		AcceptThreshold: cfg.Scoring.AcceptThreshold,
		SkillsFile:      cfg.Extraction.SkillsFile,
	}, vision, log)
	if err != nil {
		log.Fatal("failed to build screener", zap.Error(err))
	}
	log.Info("screener ready", zap.Bool("vision", screener.VisionEnabled()))

	var index services.CandidateIndex
	if cfg.Qdrant.Enabled {
		store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			log.Fatal("failed to initialize qdrant", zap.Error(err))
		}
		if err := store.InitCollection(ctx); err != nil {
			log.Fatal("failed to initialize qdrant collection", zap.Error(err))
		}
		index = services.NewCandidateIndex(store, gemini, log)
		log.Info("qdrant initialized", zap.String("collection", cfg.Qdrant.Collection))
	}

	events := services.NewNopPublisher()
	if cfg.AMQP.URL != "" {
		events, err = services.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Fatal("failed to initialize amqp publisher", zap.Error(err))
		}
		log.Info("amqp publisher initialized", zap.String("exchange", cfg.AMQP.Exchange))
	}
	defer events.Close()

	screeningService := services.NewScreeningService(
		candidateRepo,
		jobRepo,
		storageService,
		screener,
		index,
		categorizer,
		events,
		log,
	)

	worker := services.NewWorker(
		candidateRepo,
		screeningService,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		log,
	)
	worker.Start(ctx)

	// Initialize Handlers
	jobHandler := handlers.NewJobHandler(jobRepo, candidateRepo)
	uploadHandler := handlers.NewUploadHandler(
		jobRepo,
		candidateRepo,
		storageService,
		worker,
		cfg.Storage.MaxFileSize,
		log,
	)
	resultHandler := handlers.NewResultHandler(candidateRepo, worker)
	screenHandler := handlers.NewScreenHandler(screener, cfg.Storage.MaxFileSize, log)
	searchHandler := handlers.NewSearchHandler(jobRepo, candidateRepo, index, log)
	categorizeHandler := handlers.NewCategorizeHandler(categorizer, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CV Screener API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 5,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
			"vision": screener.VisionEnabled(),
			"index":  index != nil,
		})
	})

	api.Post("/jobs", jobHandler.HandleCreateJob)
	api.Get("/jobs/:id", jobHandler.HandleGetJob)
	api.Get("/jobs/:id/candidates", jobHandler.HandleListCandidates)
	api.Post("/jobs/:id/candidates", uploadHandler.HandleUpload)
	api.Get("/jobs/:id/similar", searchHandler.HandleSimilar)

	api.Get("/candidates/:id", resultHandler.HandleGetResult)
	api.Post("/candidates/:id/retry", resultHandler.HandleRetry)

	api.Post("/extract", screenHandler.HandleExtract)
	api.Post("/score", screenHandler.HandleScore)
	api.Post("/categorize", categorizeHandler.HandleCategorize)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CV Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/jobs",
				"GET /api/v1/jobs/:id",
				"GET /api/v1/jobs/:id/candidates",
				"POST /api/v1/jobs/:id/candidates",
				"GET /api/v1/jobs/:id/similar",
				"GET /api/v1/candidates/:id",
				"POST /api/v1/candidates/:id/retry",
				"POST /api/v1/extract",
				"POST /api/v1/score",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
