package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"Boardroom/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		Compression  string   `yaml:"compression"`
		RequiredAcks int      `yaml:"required_acks"`
	} `yaml:"kafka"`
	MarketData struct {
		ChartURL  string        `yaml:"chart_url"`
		NewsURL   string        `yaml:"news_url"`
		QuoteURL  string        `yaml:"quote_url"`
		IndexURL  string        `yaml:"index_url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"marketdata"`
	Quotes struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"quotes"`
	Sentiment struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Advisor struct {
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		Model         string        `yaml:"model"`
		Timeout       time.Duration `yaml:"timeout"`
		BriefCacheTTL time.Duration `yaml:"brief_cache_ttl"`
	} `yaml:"advisor"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Trading TradingConfig `yaml:"trading"`
}

// TradingConfig carries every tunable of the screening pipeline, ledger,
// exit engine and scheduler.
type TradingConfig struct {
	InitialCapital      float64       `yaml:"initial_capital"`
	TradeAllocation     float64       `yaml:"trade_allocation"`
	MinTradeAmount      float64       `yaml:"min_trade_amount"`
	Watchlist           []string      `yaml:"watchlist"`
	CryptoSymbols       []string      `yaml:"crypto_symbols"`
	BenchmarkSymbol     string        `yaml:"benchmark_symbol"`
	CryptoBenchmark     string        `yaml:"crypto_benchmark"`
	DefaultSentiment    float64       `yaml:"default_sentiment"`
	StrictSentiment     float64       `yaml:"strict_sentiment"`
	DefaultVolumeMult   float64       `yaml:"default_volume_mult"`
	StrictVolumeMult    float64       `yaml:"strict_volume_mult"`
	MaxPERatio          float64       `yaml:"max_pe_ratio"`
	MomentumVolumeRatio float64       `yaml:"momentum_volume_ratio"`
	ProfitTargetPct     float64       `yaml:"profit_target_pct"`
	StopLossRatio       float64       `yaml:"stop_loss_ratio"`
	TimeStopDays        int           `yaml:"time_stop_days"`
	TimeStopFloorPct    float64       `yaml:"time_stop_floor_pct"`
	PanicDropPct        float64       `yaml:"panic_drop_pct"`
	MinCryptoShare      float64       `yaml:"min_crypto_share"`
	BatchSize           int           `yaml:"batch_size"`
	BatchPause          time.Duration `yaml:"batch_pause"`
	CycleInterval       time.Duration `yaml:"cycle_interval"`
	ErrorBackoff        time.Duration `yaml:"error_backoff"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval"`
	Timezone            string        `yaml:"timezone"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and connection
// strings from the environment. A .env file is honored when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("ADVISOR_API_KEY"); v != "" {
		c.Advisor.APIKey = v
	}
	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Trading.Watchlist = strings.Split(v, ",")
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	return c, nil
}

func (c *Config) applyDefaults() {
	t := &c.Trading
	if t.InitialCapital == 0 {
		t.InitialCapital = 10000.0
	}
	if t.TradeAllocation == 0 {
		t.TradeAllocation = 0.20
	}
	if t.MinTradeAmount == 0 {
		t.MinTradeAmount = 50.0
	}
	if t.DefaultSentiment == 0 {
		t.DefaultSentiment = 0.90
	}
	if t.StrictSentiment == 0 {
		t.StrictSentiment = 0.98
	}
	if t.DefaultVolumeMult == 0 {
		t.DefaultVolumeMult = 1.2
	}
	if t.StrictVolumeMult == 0 {
		t.StrictVolumeMult = 3.0
	}
	if t.MaxPERatio == 0 {
		t.MaxPERatio = 150.0
	}
	if t.MomentumVolumeRatio == 0 {
		t.MomentumVolumeRatio = 3.0
	}
	if t.ProfitTargetPct == 0 {
		t.ProfitTargetPct = 5.0
	}
	if t.StopLossRatio == 0 {
		t.StopLossRatio = 0.96
	}
	if t.TimeStopDays == 0 {
		t.TimeStopDays = 5
	}
	if t.TimeStopFloorPct == 0 {
		t.TimeStopFloorPct = -2.0
	}
	if t.PanicDropPct == 0 {
		t.PanicDropPct = -2.0
	}
	if t.MinCryptoShare == 0 {
		t.MinCryptoShare = 0.10
	}
	if t.BatchSize == 0 {
		t.BatchSize = 100
	}
	if t.BatchPause == 0 {
		t.BatchPause = time.Second
	}
	if t.CycleInterval == 0 {
		t.CycleInterval = 5 * time.Minute
	}
	if t.ErrorBackoff == 0 {
		t.ErrorBackoff = time.Minute
	}
	if t.HeartbeatInterval == 0 {
		t.HeartbeatInterval = time.Hour
	}
	if t.BenchmarkSymbol == "" {
		t.BenchmarkSymbol = "SPY"
	}
	if t.CryptoBenchmark == "" {
		t.CryptoBenchmark = "BTC-USD"
	}
	if t.Timezone == "" {
		t.Timezone = "America/New_York"
	}
	if c.Advisor.BriefCacheTTL == 0 {
		c.Advisor.BriefCacheTTL = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Trading.Watchlist) == 0 {
		return fmt.Errorf("trading.watchlist cannot be empty")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Trading.TradeAllocation <= 0 || c.Trading.TradeAllocation > 1 {
		return fmt.Errorf("trading.trade_allocation must be in (0,1], got %v", c.Trading.TradeAllocation)
	}
	if c.Trading.StopLossRatio <= 0 || c.Trading.StopLossRatio >= 1 {
		return fmt.Errorf("trading.stop_loss_ratio must be in (0,1), got %v", c.Trading.StopLossRatio)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	return nil
}
