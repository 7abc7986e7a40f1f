package main

import (
	"github.com/fincoach/fincoach/api-gateway/internal/proxy"
	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/fincoach/fincoach/shared/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.SetGlobal(logger.New("api-gateway"))

	_ = godotenv.Load()
	v := config.NewViper("api-gateway", "8080")
	cfg, err := config.FromViper(v)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	server.InitAuth(cfg)

	upstreams := proxy.LoadUpstreams(v)
	log.Info().Interface("upstreams", upstreams).Msg("Proxy routes configured")

	router := server.NewRouter(cfg.Service)
	proxy.Register(router, upstreams, proxy.NewClient())

	if err := server.Run(cfg, router); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
