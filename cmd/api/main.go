package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skillforge/arena-api/internal/config"
	"github.com/skillforge/arena-api/internal/database"
	"github.com/skillforge/arena-api/internal/handler"
	"github.com/skillforge/arena-api/internal/middleware"
	"github.com/skillforge/arena-api/internal/models"
	"github.com/skillforge/arena-api/internal/repository"
	"github.com/skillforge/arena-api/internal/router"
	"github.com/skillforge/arena-api/internal/service"
	"github.com/skillforge/arena-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Problem{}, &models.Solution{}, &models.RewardEntry{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	evaluator, err := buildEvaluator(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure evaluator: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	problemRepo := repository.NewProblemRepository(db)
	solutionRepo := repository.NewSolutionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	problemProvider := service.NewProblemProvider(problemRepo, redisClient, cfg.ProblemCacheTTL, logger)
	evaluationService := service.NewEvaluationService(solutionRepo, rewardRepo, problemProvider, evaluator, validate, logger)

	solutionHandler := handler.NewSolutionHandler(evaluationService, validate, logger)
	problemHandler := handler.NewProblemHandler(problemProvider, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SolutionHandler: solutionHandler,
		ProblemHandler:  problemHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// buildEvaluator selects the scoring backend once at startup. A disabled
// evaluator is a valid configuration: every submission then stays pending
// until evaluated manually.
func buildEvaluator(cfg config.Config, logger zerolog.Logger) (ai.Evaluator, error) {
	if cfg.EvaluationDisabled {
		logger.Warn().Msg("automatic evaluation disabled by configuration")
		return nil, nil
	}

	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIEvaluator(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.EvaluationTimeout,
			Logger:  logger,
		})
	case "anthropic":
		return ai.NewAnthropicEvaluator(ai.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.EvaluationTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
