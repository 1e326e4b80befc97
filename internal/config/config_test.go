package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"GRAPHQL_ENDPOINT", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "ORACLE_LLM_API_KEY",
		"ORACLE_LLM_PROVIDER", "ORACLE_POLL_INTERVAL", "ORACLE_ERROR_BACKOFF",
		"KAFKA_BROKERS", "REDIS_ADDR", "SQLITE_PATH", "ORACLE_DRY_RUN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultGraphQLEndpoint, cfg.GraphQLEndpoint)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.ErrorBackoff)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.DryRun)
}

func TestValidateMissingCredential(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORACLE_LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GRAPHQL_ENDPOINT", "http://node:9000/chains/abc/applications/def")
	t.Setenv("ORACLE_POLL_INTERVAL", "5")
	t.Setenv("ORACLE_ERROR_BACKOFF", "1m")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("ORACLE_DRY_RUN", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.Equal(t, "http://node:9000/chains/abc/applications/def", cfg.GraphQLEndpoint)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.ErrorBackoff)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.DryRun)
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := &Config{GraphQLEndpoint: DefaultGraphQLEndpoint, LLM: LLMConfig{Provider: "cohere", APIKey: "k"}}
	require.Error(t, cfg.Validate())
}
