package main

import (
	"context"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	"github.com/fincoach/fincoach/verify-service/internal/handler"
	"github.com/fincoach/fincoach/verify-service/internal/query"
	"github.com/fincoach/fincoach/verify-service/internal/repository"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("verify-service"))

	cfg, err := config.Load("verify-service", "8086")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	server.InitAuth(cfg)

	if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	db, err := storage.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	redis, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redis.Close()

	generator, err := ai.NewOrDisabled(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if _, disabled := generator.(ai.Disabled); disabled {
		log.Warn().Msg("GEMINI_API_KEY not set, unknown domains get the fallback verdict")
	}

	linkRepo := repository.NewLinkRepository(db, redis.Client, cfg.LinkCacheTTL)
	verifier := query.NewLinkVerifier(linkRepo, generator, cfg.AITimeout)
	verifyHandler := handler.NewVerifyHandler(verifier)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1/verify", middleware.AuthMiddleware())
	{
		v1.POST("/link", verifyHandler.VerifyLink)
	}

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
