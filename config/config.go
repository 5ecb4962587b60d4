package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultShikimoriURL = "https://shikimori.one/api/graphql"

// Config is everything the server reads from the environment. A .env
// file in the working directory is honored when present.
type Config struct {
	Port           string
	AllowedOrigins []string
	ShikimoriURL   string
	RedisURL       string // optional, empty disables the catalog cache
	SweepInterval  time.Duration
	Debug          bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "5000"),
		ShikimoriURL:  getEnv("SHIKIMORI_GQL_API_URL", defaultShikimoriURL),
		RedisURL:      os.Getenv("REDIS_URL"),
		SweepInterval: 10 * time.Minute,
		Debug:         os.Getenv("DEBUG") == "true",
	}

	origins, ok := os.LookupEnv("ALLOWED_ORIGINS")
	if !ok || origins == "" {
		return Config{}, fmt.Errorf("missing ALLOWED_ORIGINS")
	}
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if raw, ok := os.LookupEnv("ROOM_SWEEP_INTERVAL"); ok {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return Config{}, fmt.Errorf("invalid ROOM_SWEEP_INTERVAL %q", raw)
		}
		cfg.SweepInterval = interval
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
