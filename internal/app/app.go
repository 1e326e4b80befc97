package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/oracleai/internal/advisory"
	"github.com/hetulpatel/oracleai/internal/cache"
	"github.com/hetulpatel/oracleai/internal/config"
	"github.com/hetulpatel/oracleai/internal/graphql"
	kafkautil "github.com/hetulpatel/oracleai/internal/kafka"
	"github.com/hetulpatel/oracleai/internal/llm"
	"github.com/hetulpatel/oracleai/internal/logging"
	"github.com/hetulpatel/oracleai/internal/markets"
	"github.com/hetulpatel/oracleai/internal/queue"
	"github.com/hetulpatel/oracleai/internal/resolver"
	sqlstore "github.com/hetulpatel/oracleai/internal/storage/sqlite"
	"github.com/hetulpatel/oracleai/internal/verification"
)

const (
	brokerWaitTimeout = 45 * time.Second
	topicTimeout      = 30 * time.Second
	redisPingTimeout  = 5 * time.Second
)

// Runtime holds the long-lived clients for one process.
type Runtime struct {
	Resolver *resolver.Service
	closers  []func() error
}

// Close releases every client opened by Build, last opened first.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logging.Warnf("[oracle] close: %v", err)
		}
	}
	r.closers = nil
}

// NewCompleter returns the advisory client for the configured provider.
func NewCompleter(cfg config.LLMConfig) (llm.Completer, error) {
	llmCfg := llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Provider {
	case config.ProviderAnthropic, "":
		return llm.NewAnthropic(llmCfg)
	case config.ProviderOpenAI:
		return llm.New(llmCfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Banner logs the effective configuration without secrets.
func Banner(cfg *config.Config) {
	logging.Infof("[oracle] OracleAI resolver starting")
	logging.Infof("[oracle] graphql endpoint: %s", cfg.GraphQLEndpoint)
	logging.Infof("[oracle] llm provider: %s (model %q, key set: %t)", cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey != "")
	logging.Infof("[oracle] poll every %s, backoff %s, dry run %t", cfg.PollInterval, cfg.ErrorBackoff, cfg.DryRun)
	logging.Infof("[oracle] redis: %s, kafka: %v, sqlite: %s",
		orNone(cfg.Redis.Addr), cfg.Kafka.Brokers, orNone(cfg.SQLite.Path))
}

func orNone(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}

// Build constructs the resolver and its optional side channels. Redis and
// Kafka are skipped with a warning when unreachable; a configured SQLite
// path that cannot be opened is an error.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt := &Runtime{}

	gql, err := graphql.NewClient(graphql.Config{Endpoint: cfg.GraphQLEndpoint, Timeout: cfg.GraphQLTimeout})
	if err != nil {
		return nil, err
	}
	marketClient := markets.NewClient(gql)
	logging.Infof("[oracle] market source: %s", gql.Endpoint())

	completer, err := NewCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}
	advisor, err := advisory.NewService(advisory.Config{LLMClient: completer})
	if err != nil {
		return nil, err
	}

	gatherer := verification.NewDefaultGatherer(verification.Config{
		PriceURL: cfg.PriceURL,
		Timeout:  cfg.PriceTimeout,
	})
	logging.Infof("[oracle] verification rules: %s", strings.Join(gatherer.RuleNames(), ", "))

	rcfg := resolver.Config{
		Source:   marketClient,
		Sink:     marketClient,
		Advisor:  advisor,
		Gatherer: gatherer,
		DryRun:   cfg.DryRun,
	}

	if cfg.SQLite.Path != "" {
		store, err := sqlstore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		if err := store.CreateTables(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
		rcfg.Markets = store
		rcfg.Recorders = append(rcfg.Recorders, store)
		logging.Infof("[oracle] journaling to %s", store.Path())
	}

	if cfg.Redis.Addr != "" {
		if tracker := setupAttempts(ctx, cfg.Redis); tracker != nil {
			rt.closers = append(rt.closers, tracker.Close)
			rcfg.Attempts = tracker
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		if writer := setupWriter(ctx, cfg.Kafka); writer != nil {
			rt.closers = append(rt.closers, writer.Close)
			rcfg.Recorders = append(rcfg.Recorders, queue.Publisher{Writer: writer})
		}
	}

	svc, err := resolver.New(rcfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Resolver = svc
	return rt, nil
}

func setupAttempts(ctx context.Context, cfg config.RedisConfig) cache.AttemptTracker {
	tracker, err := cache.NewRedisAttemptTracker(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL, cfg.Prefix)
	if err != nil {
		logging.Warnf("[oracle] attempt tracking disabled: %v", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := tracker.Ping(pingCtx); err != nil {
		logging.Warnf("[oracle] redis unavailable, attempt tracking disabled: %v", err)
		tracker.Close()
		return nil
	}
	return tracker
}

func setupWriter(ctx context.Context, cfg config.KafkaConfig) *kafkago.Writer {
	topic := cfg.Topic
	if topic == "" {
		topic = kafkautil.DefaultResolutionTopic
	}
	waitCtx, cancel := context.WithTimeout(ctx, brokerWaitTimeout)
	defer cancel()
	if err := kafkautil.WaitForBroker(waitCtx, cfg.Brokers); err != nil {
		logging.Warnf("[oracle] kafka unavailable, events disabled: %v", err)
		return nil
	}
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, topicTimeout)
	if err := kafkautil.EnsureTopic(ensureCtx, cfg.Brokers, topic, 1); err != nil {
		logging.Warnf("[oracle] ensure topic warning: %v", err)
	}
	cancelEnsure()
	return kafkautil.NewWriter(cfg.Brokers, topic)
}
