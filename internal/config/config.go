package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGraphQLEndpoint = "http://localhost:8080/graphql"
	DefaultPriceURL        = "https://api.coinbase.com/v2/prices/BTC-USD/spot"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	GraphQLEndpoint string
	GraphQLTimeout  time.Duration

	LLM LLMConfig

	PollInterval time.Duration
	ErrorBackoff time.Duration
	DryRun       bool

	PriceURL     string
	PriceTimeout time.Duration

	Redis  RedisConfig
	Kafka  KafkaConfig
	SQLite SQLiteConfig
}

// LLMConfig selects and configures the advisory provider.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// RedisConfig is optional; an empty Addr disables attempt tracking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// KafkaConfig is optional; no brokers disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SQLiteConfig is optional; an empty Path disables the resolution journal.
type SQLiteConfig struct {
	Path string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	provider := strings.ToLower(envString("ORACLE_LLM_PROVIDER", ProviderAnthropic))
	apiKey := os.Getenv("ORACLE_LLM_API_KEY")
	if apiKey == "" {
		switch provider {
		case ProviderOpenAI:
			apiKey = os.Getenv("OPENAI_API_KEY")
		default:
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	cfg := &Config{
		GraphQLEndpoint: envString("GRAPHQL_ENDPOINT", DefaultGraphQLEndpoint),
		GraphQLTimeout:  envDuration("GRAPHQL_TIMEOUT", 30*time.Second),
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      strings.TrimSpace(apiKey),
			BaseURL:     envString("ORACLE_LLM_BASE_URL", ""),
			Model:       envString("ORACLE_LLM_MODEL", ""),
			MaxTokens:   envInt("ORACLE_LLM_MAX_TOKENS", 1024),
			Temperature: float32(envFloat("ORACLE_LLM_TEMPERATURE", 0)),
			Timeout:     envDuration("ORACLE_LLM_TIMEOUT", 60*time.Second),
		},
		PollInterval: envDuration("ORACLE_POLL_INTERVAL", 10*time.Second),
		ErrorBackoff: envDuration("ORACLE_ERROR_BACKOFF", 30*time.Second),
		DryRun:       envBool("ORACLE_DRY_RUN", false),
		PriceURL:     envString("ORACLE_PRICE_URL", DefaultPriceURL),
		PriceTimeout: envDuration("ORACLE_PRICE_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
			Prefix:   envString("ORACLE_REDIS_PREFIX", "oracle_attempts"),
			TTL:      envDuration("ORACLE_REDIS_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envString("ORACLE_KAFKA_TOPIC", "oracle.resolutions"),
		},
		SQLite: SQLiteConfig{
			Path: os.Getenv("SQLITE_PATH"),
		},
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process before polling.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if c.LLM.APIKey == "" {
		if c.LLM.Provider == ProviderOpenAI {
			return fmt.Errorf("config: OPENAI_API_KEY (or ORACLE_LLM_API_KEY) is not set")
		}
		return fmt.Errorf("config: ANTHROPIC_API_KEY (or ORACLE_LLM_API_KEY) is not set")
	}
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown ORACLE_LLM_PROVIDER %q", c.LLM.Provider)
	}
	if strings.TrimSpace(c.GraphQLEndpoint) == "" {
		return fmt.Errorf("config: GRAPHQL_ENDPOINT is empty")
	}
	return nil
}

func envString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}

// envDuration accepts Go durations ("10s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
