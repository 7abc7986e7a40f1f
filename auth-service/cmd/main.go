package main

import (
	"github.com/fincoach/fincoach/auth-service/internal/handler"
	authqry "github.com/fincoach/fincoach/auth-service/internal/query"
	"github.com/fincoach/fincoach/auth-service/internal/repository"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/fincoach/fincoach/shared/storage"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("auth-service"))

	cfg, err := config.Load("auth-service", "8081")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	server.InitAuth(cfg)

	db, err := storage.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// CQRS: auth is read-only; no CommandService needed
	userRepo := repository.NewUserRepository(db)
	querySvc := authqry.NewAuthQueryService(userRepo, cfg.JWTTTL)
	authHandler := handler.NewAuthHandler(querySvc, cfg.JWTTTL)

	router := server.NewRouter(cfg.Service)
	v1 := router.Group("/v1/auth")
	{
		v1.POST("/login", authHandler.Login)
		v1.POST("/refresh", authHandler.RefreshToken)
		v1.POST("/logout", middleware.AuthMiddleware(), authHandler.Logout)
	}

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
