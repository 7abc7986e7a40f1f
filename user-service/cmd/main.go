package main

import (
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	usercmd "github.com/fincoach/fincoach/user-service/internal/command"
	"github.com/fincoach/fincoach/user-service/internal/handler"
	userqry "github.com/fincoach/fincoach/user-service/internal/query"
	"github.com/fincoach/fincoach/user-service/internal/repository"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("user-service"))

	cfg, err := config.Load("user-service", "8082")
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

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	writeRepo := repository.NewUserWriteRepository(db)
	readRepo := repository.NewUserReadRepository(db, redis.Client)

	commandSvc := usercmd.NewUserCommandService(writeRepo, readRepo, publisher)
	querySvc := userqry.NewUserQueryService(readRepo)

	userHandler := handler.NewUserHandler(commandSvc, querySvc)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1/users")
	{
		v1.POST("", userHandler.RegisterUser)
		v1.GET("/profile", middleware.AuthMiddleware(), userHandler.GetProfile)
		v1.PATCH("/profile", middleware.AuthMiddleware(), userHandler.UpdateProfile)
	}

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
