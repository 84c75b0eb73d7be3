package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RedisAddr              string
	RateLimit              int
	ShutdownTimeoutSeconds int

	ServiceFee             string
	PlatformFeePercent     string
	ThrottleMinutes        int
	ReconcileSweepSpec     string
	NotifyQueue            string
	NotifyConcurrency      int
	CheckoutBaseURL        string
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "taskorilla.db"),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		ServiceFee:             getEnv("SERVICE_FEE", "2"),
		PlatformFeePercent:     getEnv("PLATFORM_FEE_PERCENT", "10"),
		ThrottleMinutes:        getEnvAsInt("PROGRESS_EMAIL_THROTTLE_MINUTES", 5),
		ReconcileSweepSpec:     getEnv("RECONCILE_SWEEP_SPEC", "@every 5m"),
		NotifyQueue:            getEnv("NOTIFY_QUEUE", "notifications"),
		NotifyConcurrency:      getEnvAsInt("NOTIFY_CONCURRENCY", 5),
		CheckoutBaseURL:        getEnv("CHECKOUT_BASE_URL", "http://127.0.0.1:8080"),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.ThrottleMinutes <= 0 {
		log.Fatal("PROGRESS_EMAIL_THROTTLE_MINUTES must be greater than 0")
	}
	if cfg.ReconcileSweepSpec == "" {
		log.Fatal("RECONCILE_SWEEP_SPEC must not be empty")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
