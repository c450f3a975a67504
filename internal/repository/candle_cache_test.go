package repository

import (
	"context"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/pkg/cache"
	"TradeWolf/pkg/logger"
)

func TestCachedCandlesRoundTrip(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	cc := NewCachedCandles(mem, logger.Nop())

	ctx := context.Background()
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	series := models.Series{
		{OpenTime: base, Symbol: "BTCUSDT", Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{OpenTime: base.Add(time.Minute), Symbol: "BTCUSDT", Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 12},
	}

	cc.Set(ctx, "candles:BTCUSDT:1m:2", series, time.Minute)

	got, ok := cc.Get(ctx, "candles:BTCUSDT:1m:2")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 {
		t.Fatalf("got %d candles, want 2", len(got))
	}
	if got[1].Close != 101 {
		t.Errorf("close = %v, want 101", got[1].Close)
	}
	if !got[0].OpenTime.Equal(base) {
		t.Errorf("open time = %v, want %v", got[0].OpenTime, base)
	}
}

func TestCachedCandlesMiss(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	cc := NewCachedCandles(mem, logger.Nop())

	if _, ok := cc.Get(context.Background(), "candles:ETHUSDT:5m:100"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCachedCandlesEmptySeriesIsMiss(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	cc := NewCachedCandles(mem, logger.Nop())

	ctx := context.Background()
	cc.Set(ctx, "candles:BTCUSDT:1h:30", models.Series{}, time.Minute)

	if _, ok := cc.Get(ctx, "candles:BTCUSDT:1h:30"); ok {
		t.Fatal("empty series must read as a miss")
	}
}
