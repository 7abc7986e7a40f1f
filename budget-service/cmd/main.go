package main

import (
	"os"

	budgetcmd "github.com/fincoach/fincoach/budget-service/internal/command"
	"github.com/fincoach/fincoach/budget-service/internal/handler"
	budgetqry "github.com/fincoach/fincoach/budget-service/internal/query"
	"github.com/fincoach/fincoach/budget-service/internal/repository"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("budget-service"))

	cfg, err := config.Load("budget-service", "8083")
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

	publisher := events.NewPublisher(redis.Client)

	ledgerRepo := repository.NewBudgetWriteRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	readRepo := repository.NewBudgetReadRepository(db, redis.Client)

	commandSvc := budgetcmd.NewBudgetCommandService(ledgerRepo, alertRepo, readRepo, publisher, cfg.Location)
	querySvc := budgetqry.NewBudgetQueryService(readRepo, alertRepo, cfg.Location)

	budgetHandler := handler.NewBudgetHandler(commandSvc, querySvc)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1", middleware.AuthMiddleware())
	{
		v1.GET("/budgets/current", budgetHandler.GetCurrentBudget)
		v1.GET("/alerts", budgetHandler.ListAlerts)
		v1.PATCH("/alerts/:alertId/read", budgetHandler.MarkAlertRead)
	}

	// One consumer name per host so restarted pods resume their own pending entries.
	consumer, _ := os.Hostname()
	if consumer == "" {
		consumer = "budget-consumer-1"
	}
	transactionSub := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    "budget-service-group",
		Consumer: consumer,
		Stream:   events.TransactionEventsStream,
		Handler:  commandSvc.HandleTransactionEvent,
	})
	userSub := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    "budget-service-group",
		Consumer: consumer,
		Stream:   events.UserEventsStream,
		Handler:  commandSvc.HandleUserEvent,
	})

	if err := server.Run(cfg, router, transactionSub.Start, userSub.Start); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
