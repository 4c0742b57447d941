package main

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ytget/ytdetails"
	"github.com/ytget/ytdetails/internal/botguard"
	"github.com/ytget/ytdetails/internal/config"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/youtube/playerscript"
)

// app holds the long-lived objects shared by every command.
type app struct {
	client *ytdetails.Client
	redis  *redis.Client
	store  *playerscript.RedisStore
}

func newApp(cfg *config.Config) (*app, error) {
	c := ytdetails.New().
		WithTimeout(cfg.HTTP.Timeout).
		WithUserAgent(cfg.HTTP.UserAgent).
		WithProxy(cfg.HTTP.Proxy).
		WithRateLimit(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst).
		WithBaseURL(cfg.Innertube.BaseURL).
		WithInnertubeClient(cfg.Innertube.ClientName, cfg.Innertube.ClientVersion)

	if cfg.BotguardMode() == botguard.Force {
		if cfg.Botguard.Script == "" {
			return nil, errors.New("botguard.script is required when botguard.mode is force")
		}
		solver, err := botguard.NewGojaSolverFromFile(cfg.Botguard.Script)
		if err != nil {
			return nil, err
		}
		c.WithBotguard(botguard.Force, solver, botguard.NewMemoryCache(), cfg.Botguard.TTL)
	}

	a := &app{client: c}
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.store = playerscript.NewRedisStore(a.redis, cfg.Redis.Key, logger.GetGlobalLogger().Zerolog(logger.ComponentScript))
		c.WithSharedScriptStore(a.store)
	}
	return a, nil
}

func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
