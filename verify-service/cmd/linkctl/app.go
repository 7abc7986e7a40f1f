package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/config"
	redisClient "github.com/fincoach/fincoach/shared/redis"
	"github.com/fincoach/fincoach/shared/storage"
	"github.com/fincoach/fincoach/verify-service/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// app opens the stores lazily so each subcommand only connects to what it uses.
type app struct {
	v *viper.Viper

	cfg   *config.Config
	db    *sql.DB
	redis *redisClient.Client
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// links opens Postgres and, when reachable, Redis. linkctl still works without
// Redis; the cached Tier 1 entries then expire on their TTL.
func (a *app) links() (*repository.LinkRepository, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if a.db == nil {
		db, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	if a.redis == nil {
		client, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, cached verdicts will not be invalidated")
		} else {
			a.redis = client
		}
	}

	var rc *goredis.Client
	if a.redis != nil {
		rc = a.redis.Client
	}
	return repository.NewLinkRepository(a.db, rc, cfg.LinkCacheTTL), nil
}

func (a *app) generator(ctx context.Context) (ai.Generator, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	gen, err := ai.NewOrDisabled(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return gen, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
