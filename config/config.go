package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Upstream services
	APIBaseURL string `yaml:"api_base_url"`
	WSURL      string `yaml:"ws_url"`

	// Binance fallback credentials (optional; public klines need none)
	BinanceAPIKey    string `yaml:"binance_api_key"`
	BinanceSecretKey string `yaml:"binance_secret_key"`

	// Chart defaults
	Symbol       string `yaml:"symbol"`
	Interval     string `yaml:"interval"`
	HistoryLimit int    `yaml:"history_limit"`

	// News feed
	NewsLimit   int    `yaml:"news_limit"`
	NewsRefresh string `yaml:"news_refresh"` // cron spec, e.g. "@every 2m"

	// Infrastructure
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	SQLitePath    string `yaml:"sqlite_path"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// Load reads configuration from the environment with sensible defaults.
// A .env file is loaded first if present, then CONFIG_FILE (YAML) may
// override individual fields.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	cfg := &Config{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3000/api"),
		WSURL:      getEnv("WS_URL", "ws://localhost:3000/ws"),

		BinanceAPIKey:    getEnv("BINANCE_API_KEY", ""),
		BinanceSecretKey: getEnv("BINANCE_SECRET_KEY", ""),

		Symbol:       getEnv("SYMBOL", "BTCUSDT"),
		Interval:     getEnv("INTERVAL", "1h"),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 1000),

		NewsLimit:   getEnvInt("NEWS_LIMIT", 20),
		NewsRefresh: getEnv("NEWS_REFRESH", "@every 2m"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/market.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			log.Fatalf("[config] failed to load %s: %v", path, err)
		}
		log.Printf("[config] applied overrides from %s", path)
	}

	return cfg
}

// applyFile overlays non-zero fields from a YAML file onto the config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
