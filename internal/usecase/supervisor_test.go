package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/services/analytics"
	"TradeWolf/internal/services/indicators"
	"TradeWolf/pkg/logger"

	"github.com/shopspring/decimal"
)

type fakeStream struct {
	mu           sync.Mutex
	connected    bool
	reconnectErr error
	reconnects   int
}

func (s *fakeStream) Connect(_ context.Context) error { return nil }

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) Reconnect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	if s.reconnectErr != nil {
		return s.reconnectErr
	}
	s.connected = true
	return nil
}

func (s *fakeStream) Close() error { return nil }

type fakeExecutor struct {
	mu       sync.Mutex
	executed []models.TradeDecision
	result   models.ExecutionResult
	err      error
}

func (e *fakeExecutor) Execute(_ context.Context, d models.TradeDecision, _ decimal.Decimal) (models.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, d)
	if e.err != nil {
		return models.ExecutionResult{}, e.err
	}
	return e.result, nil
}

func (e *fakeExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.executed)
}

type fixedSentiment struct{ v models.Sentiment }

func (s fixedSentiment) GetSentiment(_ context.Context) (models.Sentiment, error) { return s.v, nil }

type recordingAudit struct {
	mu       sync.Mutex
	signals  []models.TradeDecision
	outcomes []models.TradeOutcome
	errs     int
}

func (a *recordingAudit) SignalEmitted(_ context.Context, d models.TradeDecision) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signals = append(a.signals, d)
	return nil
}

func (a *recordingAudit) TradeOutcome(_ context.Context, o models.TradeOutcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
	return nil
}

func (a *recordingAudit) ErrorEvent(_ context.Context, _, _, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs++
	return nil
}

func (a *recordingAudit) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordScan(string)               {}
func (nopMetrics) RecordSignal(string)             {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordCycleDuration(float64)     {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordRegime(string)             {}

type supervisorFixture struct {
	sup      *Supervisor
	status   *models.BotStatus
	market   *fakeMarket
	stream   *fakeStream
	executor *fakeExecutor
	audit    *recordingAudit
	account  *fakeAccount
}

func newSupervisorFixture(t *testing.T, cfg SupervisorConfig, market *fakeMarket) *supervisorFixture {
	t.Helper()
	account := richAccount()
	stream := &fakeStream{connected: true}
	executor := &fakeExecutor{result: models.ExecutionResult{Status: "FILLED", FillPrice: 100, FillValue: 20}}
	audit := &recordingAudit{}
	status := models.NewBotStatus(models.StrategyStrict)

	engine := indicators.NewEngine(indicators.DefaultConfig())
	cooldowns := NewCooldownTable(DefaultCooldownConfig())
	scanCfg := scannerConfig()
	scanCfg.BaseAssets = []string{"BTC"}
	scanCfg.BreakoutAssets = []string{"BTC"}
	scanner := NewScanner(market, account, engine, &fakeCache{}, nopPacer{}, scanCfg, logger.Nop())

	sup := NewSupervisor(
		cfg,
		DefaultSchedulerConfig(),
		SupervisorDeps{
			Market:    market,
			Executor:  executor,
			Sentiment: fixedSentiment{models.SentimentNeutral},
			Stream:    stream,
			Audit:     audit,
			Metrics:   nopMetrics{},
		},
		status,
		scanner,
		analytics.NewClassifier(analytics.DefaultThresholds()),
		engine,
		NewGenerator(DefaultStrategyConfig(), testLimits()),
		NewGate(account, cooldowns, 10, "USDT", logger.Nop()),
		NewPositionSizer(account, 2, 10, "USDT"),
		cooldowns,
		logger.Nop(),
	)
	return &supervisorFixture{sup: sup, status: status, market: market, stream: stream, executor: executor, audit: audit, account: account}
}

func quietMarket() *fakeMarket {
	return &fakeMarket{
		tickers: map[string]models.Ticker24h{"BTCUSDT": {QuoteVolume: 2_000_000}},
		candles: map[string]models.Series{
			"BTCUSDT:1h:30":  flatSeries(30, 100, 1000),
			"BTCUSDT:5m:150": flatSeries(150, 100, 1000),
			"BTCUSDT:5m:100": flatSeries(100, 100, 1000),
			"BTCUSDT:5m:101": flatSeries(101, 100, 1000),
			"BTCUSDT:1m:40":  flatSeries(40, 100, 1000),
			"BTCUSDT:1m:100": flatSeries(100, 100, 1000),
		},
	}
}

func fastConfig() SupervisorConfig {
	cfg := DefaultSupervisorConfig()
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffMax = 4 * time.Millisecond
	cfg.Tick = time.Millisecond
	return cfg
}

func TestBackoffDelaySequence(t *testing.T) {
	cfg := DefaultSupervisorConfig() // base 60s, max 300s
	fx := newSupervisorFixture(t, cfg, quietMarket())

	want := []time.Duration{
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		300 * time.Second,
		300 * time.Second,
	}
	for i, w := range want {
		if got := fx.sup.backoffDelay(i + 1); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRunStopsAfterErrorCeiling(t *testing.T) {
	market := quietMarket()
	fx := newSupervisorFixture(t, fastConfig(), market)
	fx.stream.connected = false
	fx.stream.reconnectErr = errors.New("connection refused")

	done := make(chan error, 1)
	go func() { done <- fx.sup.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run should return the terminal error")
		}
		if !models.IsConnectivity(err) {
			t.Fatalf("terminal error = %v, want connectivity", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop at the error ceiling")
	}
	if got := fx.status.State(); got != models.LoopStopped {
		t.Fatalf("state = %s, want STOPPED", got)
	}
	if fx.audit.errs != 5 {
		t.Fatalf("audited %d errors, want 5", fx.audit.errs)
	}
}

func TestRunCleanShutdownOnStop(t *testing.T) {
	fx := newSupervisorFixture(t, fastConfig(), quietMarket())

	done := make(chan error, 1)
	go func() { done <- fx.sup.Run(context.Background()) }()

	// Let at least one cycle complete, then request shutdown.
	deadline := time.After(5 * time.Second)
	for fx.status.State() != models.LoopRunning {
		select {
		case <-deadline:
			t.Fatal("loop never reached RUNNING")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	fx.sup.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("clean shutdown returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if got := fx.status.State(); got != models.LoopStopped {
		t.Fatalf("state = %s, want STOPPED", got)
	}
}

func TestCycleNeutralMarketHoldsWithoutExecuting(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())

	if err := fx.sup.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if fx.executor.count() != 0 {
		t.Fatal("neutral market must not reach the executor")
	}
	snap := fx.status.Snapshot()
	d, ok := snap.LastDecisions["BTCUSDT"]
	if !ok {
		t.Fatal("cycle should record a decision for the scanned instrument")
	}
	if d.Action != models.ActionHold {
		t.Fatalf("Action = %s, want HOLD on a flat market", d.Action)
	}
	if len(fx.audit.signals) != 1 {
		t.Fatalf("audited %d signals, want 1", len(fx.audit.signals))
	}
}

func TestCycleReconnectFailureIsCycleError(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.stream.connected = false
	fx.stream.reconnectErr = errors.New("dial tcp: refused")

	err := fx.sup.cycle(context.Background())
	if err == nil || !models.IsConnectivity(err) {
		t.Fatalf("cycle err = %v, want connectivity error", err)
	}
	if fx.status.Connected() {
		t.Fatal("status should report disconnected")
	}
}

func TestCycleReconnectRecovers(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.stream.connected = false

	if err := fx.sup.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if fx.stream.reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", fx.stream.reconnects)
	}
	if !fx.status.Connected() {
		t.Fatal("status should report connected after reconnect")
	}
}

func TestCollectOpportunitiesFirstScanIsFull(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())

	_, kind, err := fx.sup.collectOpportunities(context.Background())
	if err != nil {
		t.Fatalf("collectOpportunities: %v", err)
	}
	if kind != "full" {
		t.Fatalf("first scan kind = %s, want full", kind)
	}
}

func TestCollectOpportunitiesBreakoutDuringVolatile(t *testing.T) {
	market := quietMarket()
	// Volume spike plus band break so the breakout sweep reports a hit.
	fiveMin := flatSeries(100, 100, 1000)
	fiveMin[len(fiveMin)-1].Volume = 5000
	oneMin := flatSeries(40, 100, 1000)
	oneMin[len(oneMin)-1].Close = 105
	market.candles["BTCUSDT:5m:100"] = fiveMin
	market.candles["BTCUSDT:1m:40"] = oneMin

	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), market)
	fx.sup.lastFullScan = time.Now()
	fx.status.SetRegime(models.RegimeState{Regime: models.RegimeVolatile})

	_, kind, err := fx.sup.collectOpportunities(context.Background())
	if err != nil {
		t.Fatalf("collectOpportunities: %v", err)
	}
	if kind != "breakout" {
		t.Fatalf("scan kind = %s, want breakout", kind)
	}
	if fx.sup.quickScans != 1 {
		t.Fatalf("quickScans = %d, want 1", fx.sup.quickScans)
	}
}

func TestCollectOpportunitiesQuickScanBudgetForcesFull(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.sup.lastFullScan = time.Now()
	fx.sup.quickScans = 5
	fx.status.SetRegime(models.RegimeState{Regime: models.RegimeVolatile})

	_, kind, err := fx.sup.collectOpportunities(context.Background())
	if err != nil {
		t.Fatalf("collectOpportunities: %v", err)
	}
	if kind != "full" {
		t.Fatalf("scan kind = %s, want full after quick-scan budget", kind)
	}
	if fx.sup.quickScans != 0 {
		t.Fatalf("quickScans = %d, want reset to 0", fx.sup.quickScans)
	}
}

func TestCollectOpportunitiesEmptyBreakoutFallsBackToFull(t *testing.T) {
	// Quiet candles: the breakout sweep scores nothing.
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.sup.lastFullScan = time.Now()
	fx.status.SetRegime(models.RegimeState{Regime: models.RegimeVolatile})

	_, kind, err := fx.sup.collectOpportunities(context.Background())
	if err != nil {
		t.Fatalf("collectOpportunities: %v", err)
	}
	if kind != "full" {
		t.Fatalf("scan kind = %s, want full when breakouts are empty", kind)
	}
}

func TestPickTargetFallbackIsRateLimited(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	regime := models.RegimeState{Regime: models.RegimeNormal}

	symbol, ok := fx.sup.pickTarget(nil, regime)
	if !ok || symbol != "BTCUSDT" {
		t.Fatalf("pickTarget(empty) = (%s, %v), want reference instrument", symbol, ok)
	}
	if _, ok := fx.sup.pickTarget(nil, regime); ok {
		t.Fatal("second fallback inside the cooldown should be suppressed")
	}
}

func TestPickTargetHuntingRequiresScoreBar(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	hunting := models.RegimeState{Regime: models.RegimeExtreme, Hunting: true}

	weak := []models.Opportunity{{Symbol: "BTCUSDT", Score: 45}}
	if _, ok := fx.sup.pickTarget(weak, hunting); ok {
		t.Fatal("hunting mode should skip opportunities below the trade bar")
	}

	strong := []models.Opportunity{{Symbol: "BTCUSDT", Score: 60}}
	symbol, ok := fx.sup.pickTarget(strong, hunting)
	if !ok || symbol != "BTCUSDT" {
		t.Fatalf("pickTarget(strong) = (%s, %v), want BTCUSDT", symbol, ok)
	}
}

func TestExecuteFoldsOutcomeIntoRisk(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())

	d := models.TradeDecision{Symbol: "BTCUSDT", Action: models.ActionBuy, Price: 100}
	if err := fx.sup.execute(context.Background(), d); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fx.executor.count() != 1 {
		t.Fatalf("executor called %d times, want 1", fx.executor.count())
	}
	risk := fx.status.Risk()
	if risk.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", risk.TotalTrades)
	}
	if risk.TotalBuyVolume != 20 {
		t.Fatalf("TotalBuyVolume = %.2f, want 20", risk.TotalBuyVolume)
	}
	if len(fx.audit.outcomes) != 1 {
		t.Fatalf("audited %d outcomes, want 1", len(fx.audit.outcomes))
	}
}

func TestExecuteInsufficientFundsSkipsWithoutError(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.account.balances["USDT"] = decimal.NewFromInt(5)

	d := models.TradeDecision{Symbol: "BTCUSDT", Action: models.ActionBuy, Price: 100}
	if err := fx.sup.execute(context.Background(), d); err != nil {
		t.Fatalf("sizing shortfall must not fail the cycle: %v", err)
	}
	if fx.executor.count() != 0 {
		t.Fatal("underfunded trade must not reach the executor")
	}
}

func TestExecuteVenueErrorFailsCycle(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())
	fx.executor.err = models.ConnectivityError("place order", errors.New("timeout"))

	d := models.TradeDecision{Symbol: "BTCUSDT", Action: models.ActionBuy, Price: 100}
	if err := fx.sup.execute(context.Background(), d); err == nil {
		t.Fatal("venue error during execution should fail the cycle")
	}
}

func TestSetStrategyModeTakesEffect(t *testing.T) {
	fx := newSupervisorFixture(t, DefaultSupervisorConfig(), quietMarket())

	fx.sup.SetStrategyMode(models.StrategyAdaptive)
	if got := fx.status.Strategy(); got != models.StrategyAdaptive {
		t.Fatalf("strategy = %s, want ADAPTIVE", got)
	}
}
