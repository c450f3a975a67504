package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/internal/services/indicators"
	"TradeWolf/pkg/logger"
)

// ScannerConfig selects the instrument universe and scoring floors.
type ScannerConfig struct {
	BaseAssets     []string
	BreakoutAssets []string
	QuoteAsset     string

	MinVolumeQuote         float64
	FullScanMinVolumeQuote float64
	BreakoutThreshold      float64

	CandleTTL time.Duration
}

// Pacer spaces venue calls during a sweep.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Scanner sweeps the configured universe and scores each instrument.
// Full scans are broad and slow; breakout scans are narrow and fast.
type Scanner struct {
	market  repository.MarketData
	account repository.Account
	engine  *indicators.Engine
	cache   repository.CandleCache
	pacer   Pacer
	log     *logger.Logger
	cfg     ScannerConfig
}

func NewScanner(
	market repository.MarketData,
	account repository.Account,
	engine *indicators.Engine,
	cache repository.CandleCache,
	pacer Pacer,
	cfg ScannerConfig,
	log *logger.Logger,
) *Scanner {
	return &Scanner{
		market:  market,
		account: account,
		engine:  engine,
		cache:   cache,
		pacer:   pacer,
		log:     log,
		cfg:     cfg,
	}
}

// FullScan sweeps every configured instrument on hourly candles and scores
// each against RSI, MACD, volume and trend conditions. Per-instrument
// failures are logged and skipped; the sweep itself only fails on context
// cancellation.
func (s *Scanner) FullScan(ctx context.Context) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, base := range s.cfg.BaseAssets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol := base + s.cfg.QuoteAsset

		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		ticker, err := s.market.Ticker24h(ctx, symbol)
		if err != nil {
			s.log.Warn("ticker fetch failed, skipping",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if ticker.QuoteVolume < s.cfg.FullScanMinVolumeQuote {
			continue
		}

		series, err := s.fetchCandles(ctx, symbol, repository.TF1h, 30)
		if err != nil {
			s.log.Warn("candle fetch failed, skipping",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		set := s.engine.Compute(symbol, series)
		if set.SampleCount < 20 {
			continue
		}

		canSell := s.canSell(ctx, base, symbol)
		opp := scoreOpportunity(symbol, set, ticker, canSell, s.cfg.MinVolumeQuote)
		if opp.Score > 0 {
			out = append(out, opp)
		}
	}
	sortOpportunities(out)
	return out, nil
}

// scoreOpportunity applies the full-scan scoring table. Sell-side conditions
// only earn full credit when the account actually holds the base asset.
func scoreOpportunity(symbol string, set models.IndicatorSet, ticker models.Ticker24h, canSell bool, volumeFloor float64) models.Opportunity {
	opp := models.Opportunity{
		Symbol:      symbol,
		Price:       set.CurrentPrice,
		RSI:         set.RSI,
		MACDTrend:   set.MACDTrend,
		VolumeRatio: set.VolumeRatio,
		CanSell:     canSell,
	}
	add := func(points float64, signal string) {
		opp.Score += points
		opp.Signals = append(opp.Signals, signal)
	}

	switch {
	case set.RSI < 30:
		add(30, "RSI_OVERSOLD")
	case set.RSI > 70 && canSell:
		add(25, "RSI_OVERBOUGHT_SELLABLE")
	case set.RSI > 70:
		add(5, "RSI_OVERBOUGHT_NO_BALANCE")
	case set.RSI >= 45 && set.RSI <= 55:
		add(10, "RSI_NEUTRAL")
	}

	switch {
	case set.MACDTrend == models.TrendBullish:
		add(20, "MACD_BULLISH")
	case set.MACDTrend == models.TrendBearish && canSell:
		add(15, "MACD_BEARISH_SELLABLE")
	}

	if math.Abs(ticker.PriceChangePct) > 5 {
		add(15, "HIGH_VOLATILITY")
	}
	if ticker.QuoteVolume > volumeFloor*5 {
		add(15, "HIGH_VOLUME")
	}

	switch {
	case set.CurrentPrice > set.SMAFast && set.SMAFast > set.SMASlow:
		add(10, "UPTREND")
	case set.CurrentPrice < set.SMAFast && set.SMAFast < set.SMASlow && canSell:
		add(15, "DOWNTREND_SELLABLE")
	case set.CurrentPrice < set.SMAFast && set.SMAFast < set.SMASlow:
		add(5, "DOWNTREND")
	}
	return opp
}

// BreakoutScan checks the short breakout watchlist on 5m structure with 1m
// confirmation. Only instruments at or above the breakout threshold are
// reported.
func (s *Scanner) BreakoutScan(ctx context.Context) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, base := range s.cfg.BreakoutAssets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol := base + s.cfg.QuoteAsset

		fiveMin, err := s.fetchCandles(ctx, symbol, repository.TF5m, 100)
		if err != nil {
			s.log.Warn("5m candle fetch failed, skipping",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		oneMin, err := s.fetchCandles(ctx, symbol, repository.TF1m, 40)
		if err != nil {
			s.log.Warn("1m candle fetch failed, skipping",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if len(fiveMin) < 50 || len(oneMin) < 20 {
			continue
		}

		opp, ok := s.scoreBreakout(symbol, fiveMin, oneMin)
		if ok && opp.Score >= s.cfg.BreakoutThreshold {
			out = append(out, opp)
		}
	}
	sortOpportunities(out)
	return out, nil
}

// scoreBreakout evaluates band breaks, momentum and volume surges on the
// dual-timeframe view.
func (s *Scanner) scoreBreakout(symbol string, fiveMin, oneMin models.Series) (models.Opportunity, bool) {
	price, ok := oneMin.Last()
	if !ok {
		return models.Opportunity{}, false
	}
	closes5 := fiveMin.Closes()
	closes1 := oneMin.Closes()

	bb, ok := indicators.Bollinger(closes5, 20, 2)
	if !ok {
		return models.Opportunity{}, false
	}
	rsi, ok := indicators.RSI(closes5, 14)
	if !ok {
		return models.Opportunity{}, false
	}
	volumeRatio, ok := indicators.VolumeRatio(fiveMin, 48)
	if !ok {
		volumeRatio = 1
	}
	momentum5 := momentum(closes5, 6)
	momentum1 := momentum(closes1, 10)

	opp := models.Opportunity{
		Symbol:      symbol,
		Price:       price.Close,
		RSI:         rsi,
		VolumeRatio: volumeRatio,
	}
	add := func(points float64, signal string) {
		opp.Score += points
		opp.Signals = append(opp.Signals, signal)
	}

	switch {
	case price.Close > bb.Upper && volumeRatio > 2:
		add(30, "BB_BREAKOUT_UP")
	case price.Close < bb.Lower && volumeRatio > 2:
		add(30, "BB_BREAKOUT_DOWN")
	}
	switch {
	case momentum5 > 0.02 && momentum1 > 0.01:
		add(25, "STRONG_MOMENTUM_UP")
	case momentum5 < -0.02 && momentum1 < -0.01:
		add(25, "STRONG_MOMENTUM_DOWN")
	}
	if volumeRatio > 3 {
		add(20, "VOLUME_SURGE")
	}
	switch {
	case rsi < 25 && volumeRatio > 1.5:
		add(15, "RSI_OVERSOLD_VOLUME")
	case rsi > 75 && volumeRatio > 1.5:
		add(15, "RSI_OVERBOUGHT_VOLUME")
	}
	return opp, true
}

// momentum is the fractional price change over the past n samples.
func momentum(closes []float64, n int) float64 {
	if len(closes) <= n {
		return 0
	}
	prev := closes[len(closes)-1-n]
	if prev == 0 {
		return 0
	}
	return (closes[len(closes)-1] - prev) / prev
}

// fetchCandles reads through the short-lived cache so back-to-back scans do
// not repeat identical venue requests.
func (s *Scanner) fetchCandles(ctx context.Context, symbol string, tf repository.Timeframe, limit int) (models.Series, error) {
	key := fmt.Sprintf("candles:%s:%s:%d", symbol, tf, limit)
	if series, ok := s.cache.Get(ctx, key); ok {
		return series, nil
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	series, err := s.market.FetchCandles(ctx, symbol, tf, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, series, s.cfg.CandleTTL)
	return series, nil
}

// canSell reports whether the account holds enough of the base asset to
// place a sell. Lookup failures count as not sellable.
func (s *Scanner) canSell(ctx context.Context, base, symbol string) bool {
	free, err := s.account.GetFreeBalance(ctx, base)
	if err != nil {
		return false
	}
	rules, err := s.account.GetTradableRules(ctx, symbol)
	if err != nil {
		return false
	}
	return free.GreaterThanOrEqual(rules.MinQuantity)
}

// sortOpportunities orders by descending score, preserving discovery order
// for equal scores.
func sortOpportunities(opps []models.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})
}
