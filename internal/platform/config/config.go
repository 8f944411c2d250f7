package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service.
type Config struct {
	Addr        string
	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
	CacheTTL    time.Duration
}

// RedisConfig holds cache connection settings. An empty URL disables Redis
// and the service falls back to a no-op cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds event bus settings. Empty brokers disable publishing and
// consumption.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("VISITORS_ADDR", ":8080"),
		PostgresDSN: os.Getenv("VISITORS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("VISITORS_REDIS_URL"),
			PoolSize:     envInt("VISITORS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VISITORS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VISITORS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VISITORS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VISITORS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("VISITORS_EVENT_TOPIC", "visitor-events"),
			Group: envOr("VISITORS_CONSUMER_GROUP", "visitor-app"),
		},
		CacheTTL: envDuration("VISITORS_CACHE_TTL", time.Hour),
	}
	if brokers := os.Getenv("VISITORS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
