package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Venue struct {
		APIKey         string        `yaml:"api_key"`
		APISecret      string        `yaml:"api_secret"`
		RestURL        string        `yaml:"rest_url" default:"https://api.binance.com"`
		WebsocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/ws"`
		Timeout        time.Duration `yaml:"timeout" default:"5s"`
		CallDelay      time.Duration `yaml:"call_delay" default:"500ms"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"venue"`
	Universe struct {
		BaseAssets             []string `yaml:"base_assets"`
		BreakoutAssets         []string `yaml:"breakout_assets"`
		QuoteAsset             string   `yaml:"quote_asset" default:"USDT"`
		DefaultSymbol          string   `yaml:"default_symbol" default:"BTCUSDT"`
		MinVolumeQuote         float64  `yaml:"min_volume_quote" default:"1000000"`
		FullScanMinVolumeQuote float64  `yaml:"full_scan_min_volume_quote" default:"500000"`
	} `yaml:"universe"`
	Indicators struct {
		RSIPeriod  int `yaml:"rsi_period" default:"14"`
		MACDFast   int `yaml:"macd_fast" default:"12"`
		MACDSlow   int `yaml:"macd_slow" default:"26"`
		MACDSignal int `yaml:"macd_signal" default:"9"`
		FastMA     int `yaml:"fast_ma" default:"5"`
		SlowMA     int `yaml:"slow_ma" default:"20"`
		ATRPeriod  int `yaml:"atr_period" default:"14"`
	} `yaml:"indicators"`
	Strategy struct {
		Mode          string  `yaml:"mode" default:"STRICT"`
		RSIOversold   float64 `yaml:"rsi_oversold" default:"30"`
		RSIOverbought float64 `yaml:"rsi_overbought" default:"70"`
		MinDataLen    int     `yaml:"min_data_len" default:"30"`
		Strict        struct {
			VolatilityMax float64 `yaml:"volatility_max" default:"0.3"`
			TrendStrength float64 `yaml:"trend_strength" default:"0.02"`
		} `yaml:"strict"`
		Moderate struct {
			MinSignals    int     `yaml:"min_signals" default:"3"`
			VolatilityMax float64 `yaml:"volatility_max" default:"0.4"`
			TrendStrength float64 `yaml:"trend_strength" default:"0.015"`
		} `yaml:"moderate"`
		Adaptive struct {
			ScoreThreshold float64 `yaml:"score_threshold" default:"70"`
		} `yaml:"adaptive"`
	} `yaml:"strategy"`
	Risk struct {
		RiskPercentage       float64 `yaml:"risk_percentage" default:"2.0"`
		MinTradeValue        float64 `yaml:"min_trade_value" default:"10.0"`
		MaxDailyLoss         float64 `yaml:"max_daily_loss" default:"50.0"`
		MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" default:"5"`
		HuntingScoreMin      float64 `yaml:"hunting_score_min" default:"50"`
	} `yaml:"risk"`
	Backoff struct {
		Base      time.Duration `yaml:"base" default:"60s"`
		Max       time.Duration `yaml:"max" default:"300s"`
		MaxErrors int           `yaml:"max_errors" default:"5"`
	} `yaml:"backoff"`
	Cooldowns struct {
		Global       time.Duration `yaml:"global" default:"45s"`
		Symbol       time.Duration `yaml:"symbol" default:"90s"`
		SymbolAction time.Duration `yaml:"symbol_action" default:"180s"`
		Fallback     time.Duration `yaml:"fallback" default:"60s"`
	} `yaml:"cooldowns"`
	Timing struct {
		Intervals struct {
			Quiet    time.Duration `yaml:"quiet" default:"3600s"`
			Normal   time.Duration `yaml:"normal" default:"1800s"`
			Volatile time.Duration `yaml:"volatile" default:"900s"`
			Extreme  time.Duration `yaml:"extreme" default:"600s"`
			Hunting  time.Duration `yaml:"hunting" default:"300s"`
		} `yaml:"intervals"`
		RegimeCheckInterval time.Duration `yaml:"regime_check_interval" default:"300s"`
		FullScanInterval    time.Duration `yaml:"full_scan_interval" default:"1h"`
		MaxQuickScans       int           `yaml:"max_quick_scans" default:"5"`
		HuntingTriggers     int           `yaml:"hunting_triggers" default:"3"`
		BreakoutThreshold   float64       `yaml:"breakout_threshold" default:"40"`
		Tick                time.Duration `yaml:"tick" default:"5s"`
		MarketHours         struct {
			US           []int `yaml:"us"`
			Asian        []int `yaml:"asian"`
			European     []int `yaml:"european"`
			HighActivity []int `yaml:"high_activity"`
		} `yaml:"market_hours"`
	} `yaml:"timing"`
	Regime struct {
		ExtremeHourlyVol  float64 `yaml:"extreme_hourly_vol" default:"1.5"`
		ExtremeFineVol    float64 `yaml:"extreme_fine_vol" default:"2.0"`
		ExtremeVolSurge   float64 `yaml:"extreme_vol_surge" default:"3.0"`
		ExtremePriceMove  float64 `yaml:"extreme_price_move" default:"0.05"`
		VolatileHourlyVol float64 `yaml:"volatile_hourly_vol" default:"0.8"`
		VolatileFineVol   float64 `yaml:"volatile_fine_vol" default:"1.2"`
		VolatileVolSurge  float64 `yaml:"volatile_vol_surge" default:"2.0"`
		VolatilePriceMove float64 `yaml:"volatile_price_move" default:"0.03"`
		QuietHourlyVol    float64 `yaml:"quiet_hourly_vol" default:"0.3"`
		QuietFineVol      float64 `yaml:"quiet_fine_vol" default:"0.5"`
		QuietVolSurge     float64 `yaml:"quiet_vol_surge" default:"1.2"`
		QuietPriceMove    float64 `yaml:"quiet_price_move" default:"0.01"`
	} `yaml:"regime"`
	Sentiment struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"sentiment"`
	Cache struct {
		CandleTTL time.Duration `yaml:"candle_ttl" default:"30s"`
		Redis     struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Audit struct {
		Kafka struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			TopicPrefix  string        `yaml:"topic_prefix" default:"tradewolf"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Enabled      bool          `yaml:"enabled"`
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"tradewolf"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"audit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.fillUniverse()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("VENUE_API_KEY"); v != "" {
		c.Venue.APIKey = v
	}
	if v := os.Getenv("VENUE_API_SECRET"); v != "" {
		c.Venue.APISecret = v
	}
	if v := os.Getenv("BASE_ASSETS"); v != "" {
		c.Universe.BaseAssets = strings.Split(v, ",")
	}
	if v := os.Getenv("STRATEGY_MODE"); v != "" {
		c.Strategy.Mode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Audit.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	return c, nil
}

// fillUniverse applies slice defaults that struct tags cannot express.
func (c *Config) fillUniverse() {
	if len(c.Universe.BaseAssets) == 0 {
		c.Universe.BaseAssets = []string{"BTC", "ETH", "BNB", "XRP", "SOL", "MATIC", "DOT", "ADA", "AVAX", "LINK"}
	}
	if len(c.Universe.BreakoutAssets) == 0 {
		c.Universe.BreakoutAssets = []string{"BTC", "ETH", "BNB", "ADA", "SOL"}
	}
	if len(c.Timing.MarketHours.US) == 0 {
		c.Timing.MarketHours.US = hourRange(16, 24)
	}
	if len(c.Timing.MarketHours.Asian) == 0 {
		c.Timing.MarketHours.Asian = hourRange(2, 10)
	}
	if len(c.Timing.MarketHours.European) == 0 {
		c.Timing.MarketHours.European = hourRange(10, 18)
	}
	if len(c.Timing.MarketHours.HighActivity) == 0 {
		c.Timing.MarketHours.HighActivity = hourRange(14, 23)
	}
}

func hourRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for h := from; h < to; h++ {
		out = append(out, h)
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Universe.BaseAssets) == 0 {
		return fmt.Errorf("universe.base_assets cannot be empty")
	}
	if c.Universe.QuoteAsset == "" {
		return fmt.Errorf("universe.quote_asset is required")
	}
	switch c.Strategy.Mode {
	case "STRICT", "MODERATE", "ADAPTIVE":
	default:
		return fmt.Errorf("strategy.mode must be STRICT, MODERATE or ADAPTIVE, got %q", c.Strategy.Mode)
	}
	if c.Risk.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("risk.max_consecutive_losses must be positive")
	}
	if c.Cooldowns.Global <= 0 || c.Cooldowns.Symbol <= 0 || c.Cooldowns.SymbolAction <= 0 {
		return fmt.Errorf("cooldown windows must be positive")
	}
	if c.Audit.Kafka.Enabled && len(c.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers required when kafka audit is enabled")
	}
	if c.Audit.ClickHouse.Enabled && c.Audit.ClickHouse.Host == "" {
		return fmt.Errorf("audit.clickhouse.host required when clickhouse audit is enabled")
	}
	return nil
}
