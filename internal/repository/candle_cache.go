package repository

import (
	"context"
	"errors"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/pkg/cache"
	applogger "TradeWolf/pkg/logger"
)

// CachedCandles adapts a cache.Service to the candle cache the scanner uses.
// Cache failures degrade to a miss so a broken backend never blocks a scan.
type CachedCandles struct {
	cache cache.Service
	l     *applogger.Logger
}

func NewCachedCandles(svc cache.Service, l *applogger.Logger) *CachedCandles {
	return &CachedCandles{cache: svc, l: l}
}

func (c *CachedCandles) Get(ctx context.Context, key string) (models.Series, bool) {
	var s models.Series
	if err := c.cache.Get(ctx, key, &s); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && c.l != nil {
			c.l.Warn("candle cache get failed",
				applogger.String("key", key),
				applogger.Error(err),
			)
		}
		return nil, false
	}
	if len(s) == 0 {
		return nil, false
	}
	return s, true
}

func (c *CachedCandles) Set(ctx context.Context, key string, s models.Series, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, s, ttl); err != nil && c.l != nil {
		c.l.Warn("candle cache set failed",
			applogger.String("key", key),
			applogger.Error(err),
		)
	}
}
