package main

import (
	"context"
	"net/http"
	"os/signal"
	"slices"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/config"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/game"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/gateway"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/logger"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/shikimori"
)

func createServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		cache = redis.NewClient(redisOpts)
		defer cache.Close()
	}

	answers := shikimori.NewAdapter(shikimori.Config{
		URL:   cfg.ShikimoriURL,
		Cache: cache,
	})

	service := game.NewService(answers, game.ServiceOptions{
		SweepInterval: cfg.SweepInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go service.RunSweeper(ctx)

	r := createServer(cfg.AllowedOrigins)
	gateway.New(service).Register(r)

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
