package di

import (
	"context"
	"fmt"
	"time"

	"Boardroom/internal/analyst"
	"Boardroom/internal/domain/repository"
	"Boardroom/internal/handler/api"
	"Boardroom/internal/ledger"
	"Boardroom/internal/monitor"
	"Boardroom/internal/orchestrator"
	internalrepo "Boardroom/internal/repository"
	"Boardroom/internal/screener"
	"Boardroom/internal/service/advisor"
	"Boardroom/internal/service/cache"
	"Boardroom/internal/service/quotes"
	"Boardroom/internal/service/sentiment"
	"Boardroom/internal/service/telegram"
	"Boardroom/internal/service/yahoo"
	pkgch "Boardroom/pkg/clickhouse"
	"Boardroom/pkg/config"
	pkgkafka "Boardroom/pkg/kafka"
	"Boardroom/pkg/logger"
	"Boardroom/pkg/metrics"
	"Boardroom/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates a Redis client and verifies connectivity.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideClickHouseClient creates a ClickHouse client and applies the audit
// schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideStateStore creates the Redis-backed portfolio state store.
func ProvideStateStore(client *redis.Client, cfg *config.Config) repository.StateStore {
	return internalrepo.NewRedisState(client, cfg.Trading.InitialCapital)
}

// ProvideAuditLog creates the ClickHouse audit log.
func ProvideAuditLog(chClient *pkgch.Client) repository.AuditLog {
	return internalrepo.NewClickHouseAudit(chClient.DB())
}

// ProvideEventPublisher creates the Kafka tee, or a no-op when disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEvents{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEvents(producer), nil
}

// ProvideCache creates the Redis-backed TTL cache.
func ProvideCache(client *redis.Client) repository.Cache {
	return cache.NewRedisCache(client, "boardroom:cache:")
}

// ProvideYahooClient creates the market-data client.
func ProvideYahooClient(cfg *config.Config, l *logger.Logger) *yahoo.Client {
	md := cfg.MarketData
	return yahoo.New(md.ChartURL, md.QuoteURL, md.NewsURL, md.IndexURL, md.UserAgent, md.Timeout, l)
}

// ProvideMarketData binds the Yahoo client as the price/volume feed.
func ProvideMarketData(client *yahoo.Client) repository.MarketData {
	return client
}

// ProvideNewsSource binds the Yahoo client as the headline feed.
func ProvideNewsSource(client *yahoo.Client) repository.NewsSource {
	return client
}

// ProvideFundamentals wraps the Yahoo ratio fetch with the daily cache.
func ProvideFundamentals(client *yahoo.Client, c repository.Cache, l *logger.Logger) repository.FundamentalsSource {
	return yahoo.NewCachedFundamentals(client, c, l)
}

// ProvideSentimentScorer creates the inference client.
func ProvideSentimentScorer(cfg *config.Config, l *logger.Logger) repository.SentimentScorer {
	return sentiment.New(cfg.Sentiment.BaseURL, cfg.Sentiment.Timeout, l)
}

// ProvideAdvisor creates the allocation advisory client.
func ProvideAdvisor(cfg *config.Config, c repository.Cache, l *logger.Logger) repository.Advisor {
	a := cfg.Advisor
	return advisor.New(a.BaseURL, a.APIKey, a.Model, a.Timeout, a.BriefCacheTTL, c, l)
}

// ProvideNotifier creates the Telegram channel.
func ProvideNotifier(cfg *config.Config, l *logger.Logger) repository.Notifier {
	return telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, l)
}

// ProvideAnalyst creates the technical evaluator.
func ProvideAnalyst(market repository.MarketData, l *logger.Logger) repository.Analyst {
	return analyst.New(market, l)
}

// ProvideLedger creates the paper-trading ledger.
func ProvideLedger(
	state repository.StateStore,
	audit repository.AuditLog,
	events repository.EventPublisher,
	notify repository.Notifier,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *ledger.Ledger {
	return ledger.New(state, audit, events, notify, m, l,
		cfg.Trading.TradeAllocation, cfg.Trading.MinTradeAmount)
}

// ProvidePipeline creates the screening pipeline.
func ProvidePipeline(
	market repository.MarketData,
	news repository.NewsSource,
	fundamentals repository.FundamentalsSource,
	scorer repository.SentimentScorer,
	an repository.Analyst,
	led *ledger.Ledger,
	audit repository.AuditLog,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *screener.Pipeline {
	return screener.NewPipeline(market, news, fundamentals, scorer, an, led, audit, events, m, l, cfg.Trading)
}

// ProvideMonitor creates the position exit engine. The stream, when enabled,
// supplies live position prices between snapshot polls.
func ProvideMonitor(an repository.Analyst, stream *quotes.Stream, led *ledger.Ledger, m repository.Metrics, l *logger.Logger, cfg *config.Config) *monitor.Monitor {
	t := cfg.Trading
	var qs repository.QuoteSource
	if stream != nil {
		qs = stream
	}
	return monitor.New(an, qs, led, m, l, t.ProfitTargetPct, t.StopLossRatio, t.TimeStopDays, t.TimeStopFloorPct)
}

// ProvideOrchestrator creates the trading loop driver.
func ProvideOrchestrator(
	market repository.MarketData,
	an repository.Analyst,
	adv repository.Advisor,
	pipeline *screener.Pipeline,
	mon *monitor.Monitor,
	led *ledger.Ledger,
	state repository.StateStore,
	audit repository.AuditLog,
	notify repository.Notifier,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(market, an, adv, pipeline, mon, led, state, audit, notify, m, l, cfg.Trading)
}

// ProvideQuoteStream creates the realtime quote stream, nil when disabled.
func ProvideQuoteStream(cfg *config.Config, m repository.Metrics, l *logger.Logger) *quotes.Stream {
	q := cfg.Quotes
	if !q.Enabled || q.APIKey == "" {
		return nil
	}
	return quotes.New(q.APIKey, q.WebSocketURL, q.Symbols, q.ReconnectDelay, q.PingInterval, m, l)
}

// ProvideOpsHandler creates the read-only ops API.
func ProvideOpsHandler(led *ledger.Ledger, audit repository.AuditLog, l *logger.Logger) *api.OpsHandler {
	return api.NewOpsHandler(led, audit, l)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	orch *orchestrator.Orchestrator,
	ops *api.OpsHandler,
	stream *quotes.Stream,
	events repository.EventPublisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, orch, ops, stream, events, chClient)
}
