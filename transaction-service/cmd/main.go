package main

import (
	"context"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	txcmd "github.com/fincoach/fincoach/transaction-service/internal/command"
	"github.com/fincoach/fincoach/transaction-service/internal/handler"
	txqry "github.com/fincoach/fincoach/transaction-service/internal/query"
	"github.com/fincoach/fincoach/transaction-service/internal/repository"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("transaction-service"))

	cfg, err := config.Load("transaction-service", "8084")
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
		log.Warn().Msg("GEMINI_API_KEY not set, SMS parsing is disabled")
	}

	publisher := events.NewPublisher(redis.Client)

	// CQRS: write repo, read repo, user budget read cache
	writeRepo := repository.NewTransactionWriteRepository(db)
	readRepo := repository.NewTransactionReadRepository(db)
	userRepo := repository.NewUserRepository(db, redis.Client)

	commandSvc := txcmd.NewTransactionCommandService(writeRepo, txcmd.NewSMSParser(generator, cfg.AITimeout), publisher)
	querySvc := txqry.NewTransactionQueryService(readRepo, userRepo, cfg.Location)

	transactionHandler := handler.NewTransactionHandler(commandSvc, querySvc)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1/transactions", middleware.AuthMiddleware())
	{
		v1.POST("", transactionHandler.CreateTransaction)
		v1.POST("/sms", transactionHandler.CreateTransactionFromSMS)
		v1.GET("", transactionHandler.ListTransactions)
		v1.GET("/summary", transactionHandler.GetSummary)
	}

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
