package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	// Path to the Chrome/Chromium binary. Empty lets chromedp find one.
	ChromePath    string
	RenderTimeout time.Duration

	SchemaDir string
}

// Load reads configuration from the environment, with .env as a
// development convenience. Missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ChromePath:    os.Getenv("CHROME_PATH"),
		RenderTimeout: 60 * time.Second,
		SchemaDir:     getenv("SCHEMA_DIR", "templates"),
	}
	if raw := os.Getenv("RENDER_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.RenderTimeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
