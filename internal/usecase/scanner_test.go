package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/internal/services/indicators"
	"TradeWolf/pkg/logger"
)

type nopPacer struct{}

func (nopPacer) Wait(ctx context.Context) error { return ctx.Err() }

type fakeMarket struct {
	tickers     map[string]models.Ticker24h
	tickerErr   map[string]error
	candles     map[string]models.Series
	candleCalls int
}

func (m *fakeMarket) FetchCandles(_ context.Context, symbol string, tf repository.Timeframe, limit int) (models.Series, error) {
	m.candleCalls++
	key := fmt.Sprintf("%s:%s:%d", symbol, tf, limit)
	series, ok := m.candles[key]
	if !ok {
		return nil, errors.New("no candles for " + key)
	}
	return series, nil
}

func (m *fakeMarket) Ticker24h(_ context.Context, symbol string) (models.Ticker24h, error) {
	if err := m.tickerErr[symbol]; err != nil {
		return models.Ticker24h{}, err
	}
	return m.tickers[symbol], nil
}

type fakeCache struct {
	entries map[string]models.Series
	sets    int
}

func (c *fakeCache) Get(_ context.Context, key string) (models.Series, bool) {
	s, ok := c.entries[key]
	return s, ok
}

func (c *fakeCache) Set(_ context.Context, key string, s models.Series, _ time.Duration) {
	if c.entries == nil {
		c.entries = make(map[string]models.Series)
	}
	c.entries[key] = s
	c.sets++
}

// flatSeries builds n candles closing at close with the given volume.
func flatSeries(n int, close, volume float64) models.Series {
	s := make(models.Series, n)
	base := time.Unix(1_700_000_000, 0)
	for i := range s {
		s[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     close, High: close * 1.001, Low: close * 0.999,
			Close: close, Volume: volume,
		}
	}
	return s
}

func scannerConfig() ScannerConfig {
	return ScannerConfig{
		BaseAssets:             []string{"BTC", "ETH"},
		BreakoutAssets:         []string{"SOL"},
		QuoteAsset:             "USDT",
		MinVolumeQuote:         1_000_000,
		FullScanMinVolumeQuote: 500_000,
		BreakoutThreshold:      40,
		CandleTTL:              30 * time.Second,
	}
}

func TestScoreOpportunityOversoldBullish(t *testing.T) {
	set := models.IndicatorSet{
		RSI:          25,
		MACDTrend:    models.TrendBullish,
		CurrentPrice: 110,
		SMAFast:      105,
		SMASlow:      100,
	}
	ticker := models.Ticker24h{PriceChangePct: 6, QuoteVolume: 6_000_000}

	opp := scoreOpportunity("BTCUSDT", set, ticker, false, 1_000_000)
	// 30 (RSI) + 20 (MACD) + 15 (volatility) + 15 (volume) + 10 (uptrend).
	if opp.Score != 90 {
		t.Fatalf("Score = %.0f, want 90 (signals %v)", opp.Score, opp.Signals)
	}
}

func TestScoreOpportunityOverboughtNeedsBalance(t *testing.T) {
	set := models.IndicatorSet{RSI: 75, MACDTrend: models.TrendBearish, CurrentPrice: 90, SMAFast: 95, SMASlow: 100}
	ticker := models.Ticker24h{}

	withBalance := scoreOpportunity("BTCUSDT", set, ticker, true, 1_000_000)
	// 25 (RSI sellable) + 15 (MACD sellable) + 15 (downtrend sellable).
	if withBalance.Score != 55 {
		t.Fatalf("sellable Score = %.0f, want 55 (signals %v)", withBalance.Score, withBalance.Signals)
	}

	without := scoreOpportunity("BTCUSDT", set, ticker, false, 1_000_000)
	// 5 (RSI, no balance) + 0 (MACD) + 5 (downtrend, no balance).
	if without.Score != 10 {
		t.Fatalf("non-sellable Score = %.0f, want 10 (signals %v)", without.Score, without.Signals)
	}
}

func TestScoreOpportunityNeutralRSI(t *testing.T) {
	set := models.IndicatorSet{RSI: 50}
	opp := scoreOpportunity("BTCUSDT", set, models.Ticker24h{}, false, 1_000_000)
	if opp.Score != 10 {
		t.Fatalf("Score = %.0f, want 10 for neutral RSI", opp.Score)
	}
}

func TestFullScanSkipsLowVolumeAndErrors(t *testing.T) {
	market := &fakeMarket{
		tickers: map[string]models.Ticker24h{
			"BTCUSDT": {QuoteVolume: 100_000}, // below the full-scan floor
			"ETHUSDT": {QuoteVolume: 2_000_000, PriceChangePct: 6},
		},
		candles: map[string]models.Series{
			"ETHUSDT:1h:30": flatSeries(30, 100, 1000),
		},
	}
	s := NewScanner(market, richAccount(), indicators.NewEngine(indicators.DefaultConfig()),
		&fakeCache{}, nopPacer{}, scannerConfig(), logger.Nop())

	opps, err := s.FullScan(context.Background())
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	for _, opp := range opps {
		if opp.Symbol == "BTCUSDT" {
			t.Fatal("low-volume instrument should be skipped")
		}
	}
}

func TestFullScanTickerErrorSkipsInstrument(t *testing.T) {
	market := &fakeMarket{
		tickers:   map[string]models.Ticker24h{"ETHUSDT": {QuoteVolume: 2_000_000}},
		tickerErr: map[string]error{"BTCUSDT": errors.New("timeout")},
		candles: map[string]models.Series{
			"ETHUSDT:1h:30": flatSeries(30, 100, 1000),
		},
	}
	s := NewScanner(market, richAccount(), indicators.NewEngine(indicators.DefaultConfig()),
		&fakeCache{}, nopPacer{}, scannerConfig(), logger.Nop())

	if _, err := s.FullScan(context.Background()); err != nil {
		t.Fatalf("one failing instrument must not fail the sweep: %v", err)
	}
}

func TestBreakoutScanVolumeSpike(t *testing.T) {
	fiveMin := flatSeries(100, 100, 1000)
	fiveMin[len(fiveMin)-1].Volume = 5000
	oneMin := flatSeries(40, 100, 1000)
	oneMin[len(oneMin)-1].Close = 105 // above the flat upper band

	market := &fakeMarket{candles: map[string]models.Series{
		"SOLUSDT:5m:100": fiveMin,
		"SOLUSDT:1m:40":  oneMin,
	}}
	s := NewScanner(market, richAccount(), indicators.NewEngine(indicators.DefaultConfig()),
		&fakeCache{}, nopPacer{}, scannerConfig(), logger.Nop())

	opps, err := s.BreakoutScan(context.Background())
	if err != nil {
		t.Fatalf("BreakoutScan: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	// Band break with volume (30) plus volume surge (20).
	if opps[0].Score < 40 {
		t.Fatalf("Score = %.0f, want >= 40", opps[0].Score)
	}
}

func TestBreakoutScanQuietMarketReportsNothing(t *testing.T) {
	market := &fakeMarket{candles: map[string]models.Series{
		"SOLUSDT:5m:100": flatSeries(100, 100, 1000),
		"SOLUSDT:1m:40":  flatSeries(40, 100, 1000),
	}}
	s := NewScanner(market, richAccount(), indicators.NewEngine(indicators.DefaultConfig()),
		&fakeCache{}, nopPacer{}, scannerConfig(), logger.Nop())

	opps, err := s.BreakoutScan(context.Background())
	if err != nil {
		t.Fatalf("BreakoutScan: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("quiet market produced %d opportunities", len(opps))
	}
}

func TestFetchCandlesUsesCache(t *testing.T) {
	market := &fakeMarket{candles: map[string]models.Series{
		"SOLUSDT:5m:100": flatSeries(100, 100, 1000),
	}}
	cache := &fakeCache{}
	s := NewScanner(market, richAccount(), indicators.NewEngine(indicators.DefaultConfig()),
		cache, nopPacer{}, scannerConfig(), logger.Nop())

	ctx := context.Background()
	if _, err := s.fetchCandles(ctx, "SOLUSDT", repository.TF5m, 100); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := s.fetchCandles(ctx, "SOLUSDT", repository.TF5m, 100); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if market.candleCalls != 1 {
		t.Fatalf("venue called %d times, want 1 (cache hit)", market.candleCalls)
	}
}

func TestSortOpportunitiesStableDescending(t *testing.T) {
	opps := []models.Opportunity{
		{Symbol: "A", Score: 40},
		{Symbol: "B", Score: 70},
		{Symbol: "C", Score: 40},
	}
	sortOpportunities(opps)
	if opps[0].Symbol != "B" || opps[1].Symbol != "A" || opps[2].Symbol != "C" {
		t.Fatalf("order = %s,%s,%s; want B,A,C", opps[0].Symbol, opps[1].Symbol, opps[2].Symbol)
	}
}
