package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                 string
	PostgresDSN          string
	Environment          string
	AllowedOrigins       []string
	SharedSecret         string
	SessionSweepInterval time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:         envDefault("PORT", "8080"),
		PostgresDSN:  strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		Environment:  envDefault("ENVIRONMENT", "development"),
		SharedSecret: strings.TrimSpace(os.Getenv("WS_SHARED_SECRET")),
	}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	if cfg.SharedSecret != "" && len(cfg.SharedSecret) < 8 {
		return Config{}, fmt.Errorf("WS_SHARED_SECRET must be at least 8 characters")
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_SWEEP_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("SESSION_SWEEP_INTERVAL_MINUTES must be a positive integer")
		}
		cfg.SessionSweepInterval = time.Duration(minutes) * time.Minute
	}
	return cfg, nil
}

// Development reports whether localhost origins are admitted on any port.
func (c Config) Development() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev" || env == "local"
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
