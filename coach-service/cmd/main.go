package main

import (
	"context"

	"github.com/fincoach/fincoach/coach-service/internal/handler"
	coachqry "github.com/fincoach/fincoach/coach-service/internal/query"
	"github.com/fincoach/fincoach/coach-service/internal/repository"
	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	"github.com/rs/zerolog/log"
)

// Coach answers are longer than verification verdicts, so they get a wider budget.
const coachTimeoutFactor = 4

func main() {
	logger.SetGlobal(logger.New("coach-service"))

	cfg, err := config.Load("coach-service", "8085")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	server.InitAuth(cfg)

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
		log.Warn().Msg("GEMINI_API_KEY not set, coach endpoints will answer 502")
	}

	financeRepo := repository.NewFinanceRepository(db, redis.Client)
	querySvc := coachqry.NewCoachQueryService(financeRepo, generator, cfg.Location, coachTimeoutFactor*cfg.AITimeout)
	coachHandler := handler.NewCoachHandler(querySvc)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1/ai", middleware.AuthMiddleware())
	{
		v1.POST("/ask", coachHandler.Ask)
		v1.GET("/insights", coachHandler.Insights)
	}

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
