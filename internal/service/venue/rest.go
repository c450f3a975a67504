package venue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/internal/service/ratelimit"
	apphttp "TradeWolf/pkg/http"
	"TradeWolf/pkg/logger"

	"github.com/shopspring/decimal"
)

// Request budget keys. Market-data sweeps must not starve order placement.
const (
	budgetMarketData = "market_data"
	budgetAccount    = "account"
	budgetOrders     = "orders"
)

// RESTClient talks to the venue's signed REST API. It implements MarketData,
// Account and Executor.
type RESTClient struct {
	http      *apphttp.Client
	limiter   *ratelimit.Limiter
	log       *logger.Logger
	baseURL   string
	apiKey    string
	apiSecret string

	retryDelay time.Duration
}

func NewRESTClient(baseURL, apiKey, apiSecret string, timeout time.Duration, limiter *ratelimit.Limiter, log *logger.Logger) *RESTClient {
	return &RESTClient{
		http:       apphttp.NewClient(apphttp.WithTimeout(timeout)),
		limiter:    limiter,
		log:        log,
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		retryDelay: 2 * time.Second,
	}
}

// FetchCandles returns up to limit OHLCV samples for symbol, oldest first.
func (c *RESTClient) FetchCandles(ctx context.Context, symbol string, tf repository.Timeframe, limit int) (models.Series, error) {
	if !repository.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("fetch candles %s: invalid timeframe %q", symbol, tf)
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", string(tf))
	query.Set("limit", strconv.Itoa(limit))

	// Kline rows are arrays of mixed numbers and numeric strings.
	var raw [][]interface{}
	if err := c.get(ctx, budgetMarketData, "/api/v3/klines", query, false, &raw); err != nil {
		return nil, fmt.Errorf("fetch candles %s/%s: %w", symbol, tf, err)
	}

	series := make(models.Series, 0, len(raw))
	for _, row := range raw {
		candle, err := parseKline(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("fetch candles %s/%s: %w", symbol, tf, err)
		}
		series = append(series, candle)
	}
	return series, nil
}

func parseKline(symbol string, row []interface{}) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("kline row has %d fields", len(row))
	}
	openMs, ok := row[0].(float64)
	if !ok {
		return models.Candle{}, errors.New("kline open time is not numeric")
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("kline field %d is not a string", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i-1] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(int64(openMs)),
		Symbol:   symbol,
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, nil
}

type tickerPayload struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Ticker24h returns the 24h rolling statistics for symbol.
func (c *RESTClient) Ticker24h(ctx context.Context, symbol string) (models.Ticker24h, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var payload tickerPayload
	if err := c.get(ctx, budgetMarketData, "/api/v3/ticker/24hr", query, false, &payload); err != nil {
		return models.Ticker24h{}, fmt.Errorf("ticker %s: %w", symbol, err)
	}

	last, err := strconv.ParseFloat(payload.LastPrice, 64)
	if err != nil {
		return models.Ticker24h{}, fmt.Errorf("ticker %s: parse lastPrice: %w", symbol, err)
	}
	volume, err := strconv.ParseFloat(payload.QuoteVolume, 64)
	if err != nil {
		return models.Ticker24h{}, fmt.Errorf("ticker %s: parse quoteVolume: %w", symbol, err)
	}
	change, err := strconv.ParseFloat(payload.PriceChangePercent, 64)
	if err != nil {
		return models.Ticker24h{}, fmt.Errorf("ticker %s: parse priceChangePercent: %w", symbol, err)
	}
	return models.Ticker24h{
		Symbol:         payload.Symbol,
		LastPrice:      last,
		QuoteVolume:    volume,
		PriceChangePct: change,
	}, nil
}

type accountPayload struct {
	Balances []struct {
		Asset string `json:"asset"`
		Free  string `json:"free"`
	} `json:"balances"`
}

// GetFreeBalance returns the free balance for one asset. Unknown assets
// resolve to zero.
func (c *RESTClient) GetFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	var payload accountPayload
	if err := c.get(ctx, budgetAccount, "/api/v3/account", url.Values{}, true, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("fetch account: %w", err)
	}
	for _, b := range payload.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %s balance %q: %w", asset, b.Free, err)
		}
		return free, nil
	}
	return decimal.Zero, nil
}

type exchangeInfoPayload struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType string `json:"filterType"`
			MinQty     string `json:"minQty"`
			StepSize   string `json:"stepSize"`
		} `json:"filters"`
	} `json:"symbols"`
}

// GetTradableRules returns the lot-size constraints for symbol.
func (c *RESTClient) GetTradableRules(ctx context.Context, symbol string) (repository.TradableRules, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var payload exchangeInfoPayload
	if err := c.get(ctx, budgetMarketData, "/api/v3/exchangeInfo", query, false, &payload); err != nil {
		return repository.TradableRules{}, fmt.Errorf("exchange info %s: %w", symbol, err)
	}
	for _, s := range payload.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, f := range s.Filters {
			if f.FilterType != "LOT_SIZE" {
				continue
			}
			minQty, err := decimal.NewFromString(f.MinQty)
			if err != nil {
				return repository.TradableRules{}, fmt.Errorf("exchange info %s: parse minQty: %w", symbol, err)
			}
			step, err := decimal.NewFromString(f.StepSize)
			if err != nil {
				return repository.TradableRules{}, fmt.Errorf("exchange info %s: parse stepSize: %w", symbol, err)
			}
			return repository.TradableRules{MinQuantity: minQty, StepSize: step}, nil
		}
	}
	return repository.TradableRules{}, fmt.Errorf("exchange info %s: no LOT_SIZE filter", symbol)
}

type orderPayload struct {
	OrderID             int64  `json:"orderId"`
	Status              string `json:"status"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
}

// Execute places a market order for a cleared decision.
func (c *RESTClient) Execute(ctx context.Context, d models.TradeDecision, quantity decimal.Decimal) (models.ExecutionResult, error) {
	query := url.Values{}
	query.Set("symbol", d.Symbol)
	query.Set("side", string(d.Action))
	query.Set("type", "MARKET")
	query.Set("quantity", quantity.String())

	if !c.limiter.Allow(budgetOrders, 10, 1) {
		return models.ExecutionResult{}, fmt.Errorf("place order %s: %w", d.Symbol, models.ErrRateLimited)
	}

	var payload orderPayload
	if err := c.signedSend(ctx, apphttp.MethodPost, "/api/v3/order", query, &payload); err != nil {
		return models.ExecutionResult{}, fmt.Errorf("place order %s: %w", d.Symbol, err)
	}

	fillQty, _ := strconv.ParseFloat(payload.ExecutedQty, 64)
	fillValue, _ := strconv.ParseFloat(payload.CummulativeQuoteQty, 64)
	result := models.ExecutionResult{
		Status:    payload.Status,
		OrderID:   strconv.FormatInt(payload.OrderID, 10),
		FillValue: fillValue,
	}
	if fillQty > 0 {
		result.FillPrice = fillValue / fillQty
	}
	c.log.Info("order placed",
		logger.String("symbol", d.Symbol),
		logger.String("side", string(d.Action)),
		logger.String("status", payload.Status),
		logger.String("order_id", result.OrderID))
	return result, nil
}

// get performs a budgeted GET, retrying once after venue throttling.
func (c *RESTClient) get(ctx context.Context, budget, path string, query url.Values, signed bool, dest interface{}) error {
	if !c.limiter.Allow(budget, 20, 10) {
		return models.ErrRateLimited
	}

	send := func() error {
		if signed {
			return c.signedSend(ctx, apphttp.MethodGet, path, query, dest)
		}
		return c.http.Get(ctx, c.baseURL+path, query, nil, dest)
	}

	err := send()
	if isThrottled(err) {
		c.log.Warn("venue throttled request, retrying once",
			logger.String("path", path),
			logger.Duration("delay", c.retryDelay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
		err = send()
		if isThrottled(err) {
			return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		}
	}
	if err != nil {
		var statusErr *apphttp.StatusError
		if errors.As(err, &statusErr) {
			return err
		}
		return models.ConnectivityError(path, err)
	}
	return nil
}

// signedSend appends the timestamp and HMAC signature required by the
// venue's private endpoints.
func (c *RESTClient) signedSend(ctx context.Context, method, path string, query url.Values, dest interface{}) error {
	signedQuery := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			signedQuery.Add(k, v)
		}
	}
	signedQuery.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(signedQuery.Encode()))
	signedQuery.Set("signature", hex.EncodeToString(mac.Sum(nil)))

	return c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:  method,
		URL:     c.baseURL + path,
		Query:   signedQuery,
		Headers: map[string]string{"X-MBX-APIKEY": c.apiKey},
	}, dest)
}

// isThrottled recognizes venue throttling and temporary bans.
func isThrottled(err error) bool {
	var statusErr *apphttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 429 || statusErr.StatusCode == 418
	}
	return false
}
