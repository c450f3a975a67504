package di

import (
	"context"
	"fmt"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/internal/handler/api"
	internalrepo "TradeWolf/internal/repository"
	"TradeWolf/internal/service/ratelimit"
	"TradeWolf/internal/service/sentiment"
	"TradeWolf/internal/service/venue"
	"TradeWolf/internal/services/analytics"
	"TradeWolf/internal/services/indicators"
	"TradeWolf/internal/usecase"
	"TradeWolf/pkg/cache"
	pkgch "TradeWolf/pkg/clickhouse"
	"TradeWolf/pkg/config"
	xhttp "TradeWolf/pkg/http"
	pkgkafka "TradeWolf/pkg/kafka"
	applogger "TradeWolf/pkg/logger"
	"TradeWolf/pkg/metrics"
	"TradeWolf/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBotStatus creates the shared status tracker.
func ProvideBotStatus(cfg *config.Config) *models.BotStatus {
	mode, _ := models.ParseStrategyMode(cfg.Strategy.Mode)
	return models.NewBotStatus(mode)
}

// ProvideCache selects the cache backend. Redis when configured, in-memory
// otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideCandleCache adapts the cache service for candle series.
func ProvideCandleCache(svc cache.Service, l *applogger.Logger) repository.CandleCache {
	return internalrepo.NewCachedCandles(svc, l)
}

// ProvideRESTClient creates the venue REST client.
func ProvideRESTClient(cfg *config.Config, l *applogger.Logger) *venue.RESTClient {
	return venue.NewRESTClient(
		cfg.Venue.RestURL,
		cfg.Venue.APIKey,
		cfg.Venue.APISecret,
		cfg.Venue.Timeout,
		ratelimit.New(),
		l,
	)
}

// ProvideMarketData exposes the REST client as market data source.
func ProvideMarketData(rc *venue.RESTClient) repository.MarketData { return rc }

// ProvideAccount exposes the REST client as account source.
func ProvideAccount(rc *venue.RESTClient) repository.Account { return rc }

// ProvideExecutor exposes the REST client as order executor.
func ProvideExecutor(rc *venue.RESTClient) repository.Executor { return rc }

// ProvideStream creates the venue WebSocket stream over the scan universe.
func ProvideStream(cfg *config.Config, l *applogger.Logger) repository.VenueStream {
	symbols := make([]string, 0, len(cfg.Universe.BaseAssets))
	for _, asset := range cfg.Universe.BaseAssets {
		symbols = append(symbols, asset+cfg.Universe.QuoteAsset)
	}
	return venue.NewStream(
		cfg.Venue.WebsocketURL,
		symbols,
		cfg.Venue.ReconnectDelay,
		cfg.Venue.PingInterval,
		l,
	)
}

// ProvideSentiment creates the sentiment source.
func ProvideSentiment(cfg *config.Config, l *applogger.Logger) repository.SentimentSource {
	return sentiment.NewClient(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout, l)
}

// ProvideAuditSink assembles the audit pipeline from the enabled backends.
func ProvideAuditSink(cfg *config.Config, l *applogger.Logger) (repository.AuditSink, error) {
	var sinks []repository.AuditSink

	if cfg.Audit.ClickHouse.Enabled {
		ch := cfg.Audit.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = client.InitSchema(ctx, internalrepo.AuditSchemaStatements())
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		sinks = append(sinks, internalrepo.NewCHAuditSink(client, l))
	}

	if cfg.Audit.Kafka.Enabled {
		k := cfg.Audit.Kafka
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(k.Brokers),
			pkgkafka.WithCompression(k.Compression),
			pkgkafka.WithRequiredAcks(k.RequiredAcks),
			pkgkafka.WithMaxAttempts(k.MaxAttempts),
			pkgkafka.WithTimeouts(k.WriteTimeout, k.WriteTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, internalrepo.NewKafkaAuditSink(producer, internalrepo.KafkaAuditTopicsFor(k.TopicPrefix)))
	}

	switch len(sinks) {
	case 0:
		return internalrepo.NopAuditSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return internalrepo.NewFanoutAuditSink(l, sinks...), nil
	}
}

// ProvideEngine creates the indicator engine.
func ProvideEngine(cfg *config.Config) *indicators.Engine {
	return indicators.NewEngine(indicators.Config{
		RSIPeriod:  cfg.Indicators.RSIPeriod,
		MACDFast:   cfg.Indicators.MACDFast,
		MACDSlow:   cfg.Indicators.MACDSlow,
		MACDSignal: cfg.Indicators.MACDSignal,
		FastMA:     cfg.Indicators.FastMA,
		SlowMA:     cfg.Indicators.SlowMA,
		ATRPeriod:  cfg.Indicators.ATRPeriod,
	})
}

// ProvideClassifier creates the market regime classifier.
func ProvideClassifier(cfg *config.Config) *analytics.Classifier {
	return analytics.NewClassifier(analytics.Thresholds{
		ExtremeHourlyVol:  cfg.Regime.ExtremeHourlyVol,
		ExtremeFineVol:    cfg.Regime.ExtremeFineVol,
		ExtremeVolSurge:   cfg.Regime.ExtremeVolSurge,
		ExtremePriceMove:  cfg.Regime.ExtremePriceMove,
		VolatileHourlyVol: cfg.Regime.VolatileHourlyVol,
		VolatileFineVol:   cfg.Regime.VolatileFineVol,
		VolatileVolSurge:  cfg.Regime.VolatileVolSurge,
		VolatilePriceMove: cfg.Regime.VolatilePriceMove,
		QuietHourlyVol:    cfg.Regime.QuietHourlyVol,
		QuietFineVol:      cfg.Regime.QuietFineVol,
		QuietVolSurge:     cfg.Regime.QuietVolSurge,
		QuietPriceMove:    cfg.Regime.QuietPriceMove,
	})
}

// ProvideGenerator creates the signal generator.
func ProvideGenerator(cfg *config.Config) *usecase.Generator {
	return usecase.NewGenerator(strategyConfig(cfg), usecase.RiskLimits{
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
	})
}

func strategyConfig(cfg *config.Config) usecase.StrategyConfig {
	return usecase.StrategyConfig{
		RSIOversold:            cfg.Strategy.RSIOversold,
		RSIOverbought:          cfg.Strategy.RSIOverbought,
		MinDataLen:             cfg.Strategy.MinDataLen,
		StrictVolatilityMax:    cfg.Strategy.Strict.VolatilityMax,
		StrictTrendStrength:    cfg.Strategy.Strict.TrendStrength,
		ModerateMinSignals:     cfg.Strategy.Moderate.MinSignals,
		ModerateVolatilityMax:  cfg.Strategy.Moderate.VolatilityMax,
		ModerateTrendStrength:  cfg.Strategy.Moderate.TrendStrength,
		AdaptiveScoreThreshold: cfg.Strategy.Adaptive.ScoreThreshold,
	}
}

// ProvideCooldowns creates the duplicate-signal cooldown table.
func ProvideCooldowns(cfg *config.Config) *usecase.CooldownTable {
	return usecase.NewCooldownTable(usecase.CooldownConfig{
		Global:       cfg.Cooldowns.Global,
		Symbol:       cfg.Cooldowns.Symbol,
		SymbolAction: cfg.Cooldowns.SymbolAction,
		Fallback:     cfg.Cooldowns.Fallback,
	})
}

// ProvideGate creates the risk and duplicate-signal gate.
func ProvideGate(account repository.Account, cooldowns *usecase.CooldownTable, cfg *config.Config, l *applogger.Logger) *usecase.Gate {
	return usecase.NewGate(account, cooldowns, cfg.Risk.MinTradeValue, cfg.Universe.QuoteAsset, l)
}

// ProvideSizer creates the position sizer.
func ProvideSizer(account repository.Account, cfg *config.Config) *usecase.PositionSizer {
	return usecase.NewPositionSizer(account, cfg.Risk.RiskPercentage, cfg.Risk.MinTradeValue, cfg.Universe.QuoteAsset)
}

// ProvideScanner creates the opportunity scanner.
func ProvideScanner(
	market repository.MarketData,
	account repository.Account,
	engine *indicators.Engine,
	candles repository.CandleCache,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(
		market,
		account,
		engine,
		candles,
		ratelimit.NewPacer(cfg.Venue.CallDelay),
		usecase.ScannerConfig{
			BaseAssets:             cfg.Universe.BaseAssets,
			BreakoutAssets:         cfg.Universe.BreakoutAssets,
			QuoteAsset:             cfg.Universe.QuoteAsset,
			MinVolumeQuote:         cfg.Universe.MinVolumeQuote,
			FullScanMinVolumeQuote: cfg.Universe.FullScanMinVolumeQuote,
			BreakoutThreshold:      cfg.Timing.BreakoutThreshold,
			CandleTTL:              cfg.Cache.CandleTTL,
		},
		l,
	)
}

// ProvideSupervisor creates the control-loop supervisor.
func ProvideSupervisor(
	cfg *config.Config,
	market repository.MarketData,
	executor repository.Executor,
	sent repository.SentimentSource,
	stream repository.VenueStream,
	audit repository.AuditSink,
	rec repository.Metrics,
	status *models.BotStatus,
	scanner *usecase.Scanner,
	classifier *analytics.Classifier,
	engine *indicators.Engine,
	generator *usecase.Generator,
	gate *usecase.Gate,
	sizer *usecase.PositionSizer,
	cooldowns *usecase.CooldownTable,
	l *applogger.Logger,
) *usecase.Supervisor {
	supCfg := usecase.SupervisorConfig{
		DefaultSymbol:        cfg.Universe.DefaultSymbol,
		QuoteAsset:           cfg.Universe.QuoteAsset,
		FullScanInterval:     cfg.Timing.FullScanInterval,
		MaxQuickScans:        cfg.Timing.MaxQuickScans,
		HuntingScoreMin:      cfg.Risk.HuntingScoreMin,
		BackoffBase:          cfg.Backoff.Base,
		BackoffMax:           cfg.Backoff.Max,
		MaxConsecutiveErrors: cfg.Backoff.MaxErrors,
		Tick:                 cfg.Timing.Tick,
	}
	schedCfg := usecase.SchedulerConfig{
		QuietInterval:       cfg.Timing.Intervals.Quiet,
		NormalInterval:      cfg.Timing.Intervals.Normal,
		VolatileInterval:    cfg.Timing.Intervals.Volatile,
		ExtremeInterval:     cfg.Timing.Intervals.Extreme,
		HuntingInterval:     cfg.Timing.Intervals.Hunting,
		RegimeCheckInterval: cfg.Timing.RegimeCheckInterval,
		HuntingTriggers:     cfg.Timing.HuntingTriggers,
		USHours:             cfg.Timing.MarketHours.US,
		AsianHours:          cfg.Timing.MarketHours.Asian,
	}
	deps := usecase.SupervisorDeps{
		Market:    market,
		Executor:  executor,
		Sentiment: sent,
		Stream:    stream,
		Audit:     audit,
		Metrics:   rec,
	}
	return usecase.NewSupervisor(supCfg, schedCfg, deps, status, scanner, classifier, engine, generator, gate, sizer, cooldowns, l)
}

// ProvideHTTPHandler creates the control API handler.
func ProvideHTTPHandler(l *applogger.Logger, status *models.BotStatus, sup *usecase.Supervisor) xhttp.Handler {
	return api.NewControlEchoHandler(l, status, sup)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sup *usecase.Supervisor,
	handler xhttp.Handler,
	audit repository.AuditSink,
	cacheSvc cache.Service,
	stream repository.VenueStream,
) *server.App {
	return server.New(cfg, l, sup, handler, audit, cacheSvc, stream)
}
