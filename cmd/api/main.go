// @title Trivia RAG API
// @version 1.0
// @description Generates multiple-choice trivia questions from documents and topics.
// @host localhost:8000
// @BasePath /api
// @schemes http
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"trivia-rag/internal/adapter/llm"
	"trivia-rag/internal/adapter/loader"
	"trivia-rag/internal/app"
	"trivia-rag/internal/config"
	"trivia-rag/internal/handler"
	"trivia-rag/internal/logger"
	"trivia-rag/internal/middleware"
	"trivia-rag/internal/service"

	_ "trivia-rag/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
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

	components, err := app.Build(cfg)
	if err != nil {
		appLogger.Fatal("Failed to build retrieval pipeline", zap.Error(err))
	}
	defer func() {
		if err := components.Close(); err != nil {
			appLogger.Error("Failed to close resources", zap.Error(err))
		}
	}()

	generator, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	appLogger.Info("LLM client initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model))

	probeProviders(cfg, components, generator)

	docCache, err := components.NewDocumentCache(cfg.DocumentCache)
	if err != nil {
		appLogger.Fatal("Failed to create document cache", zap.Error(err))
	}

	questionService := service.NewQuestionService(
		components.Index,
		components.Indexer,
		components.Retriever,
		service.NewPromptBuilder(),
		generator,
		docCache,
		cfg.RAG.MaxConcurrency,
	)
	questionHandler := handler.NewQuestionHandler(questionService, loader.New(), cfg.Server.UploadDir)

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	fiberApp.Use(middleware.RequestLogger())
	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.RequestIDHeader,
		MaxAge:       300,
	}))

	fiberApp.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(fiberApp, questionHandler)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := fiberApp.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

// probeProviders pings the generation and embedding providers. With
// llm.require_healthy an unreachable provider aborts startup.
func probeProviders(cfg *config.Config, components *app.Components, generator *llm.GenerationService) {
	ctx := context.Background()
	for name, probe := range map[string]func() error{
		"generation": func() error { return app.Probe(ctx, "generation", generator) },
		"embedding":  func() error { return components.ProbeEmbedding(ctx) },
	} {
		err := probe()
		if err == nil {
			logger.Get().Info("Provider is reachable", zap.String("provider", name))
			continue
		}
		if cfg.LLM.RequireHealthy {
			logger.Get().Fatal(fmt.Sprintf("%s provider health check failed", name), zap.Error(err))
		}
		logger.Get().Warn("Provider health check failed, continuing", zap.String("provider", name), zap.Error(err))
	}
}
