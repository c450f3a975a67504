package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/internal/services/analytics"
	"TradeWolf/internal/services/indicators"
	"TradeWolf/pkg/logger"
)

// SupervisorConfig tunes the control loop's cadence and failure policy.
type SupervisorConfig struct {
	DefaultSymbol string
	QuoteAsset    string

	FullScanInterval time.Duration
	MaxQuickScans    int
	HuntingScoreMin  float64

	BackoffBase          time.Duration
	BackoffMax           time.Duration
	MaxConsecutiveErrors int

	// Tick is how often the loop wakes between scans to re-evaluate
	// whether an early scan is warranted.
	Tick time.Duration
}

func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		DefaultSymbol:        "BTCUSDT",
		QuoteAsset:           "USDT",
		FullScanInterval:     time.Hour,
		MaxQuickScans:        5,
		HuntingScoreMin:      50,
		BackoffBase:          time.Minute,
		BackoffMax:           5 * time.Minute,
		MaxConsecutiveErrors: 5,
		Tick:                 5 * time.Second,
	}
}

// SupervisorDeps are the external collaborators the loop drives.
type SupervisorDeps struct {
	Market    repository.MarketData
	Executor  repository.Executor
	Sentiment repository.SentimentSource
	Stream    repository.VenueStream
	Audit     repository.AuditSink
	Metrics   repository.Metrics
}

// Supervisor owns the monitor-decide-act loop. It is the sole writer of
// BotStatus; external surfaces read snapshots and post control requests
// through Stop, ForceScan and SetStrategyMode.
type Supervisor struct {
	cfg  SupervisorConfig
	deps SupervisorDeps

	status     *models.BotStatus
	scheduler  *Scheduler
	scanner    *Scanner
	classifier *analytics.Classifier
	engine     *indicators.Engine
	generator  *Generator
	gate       *Gate
	sizer      *PositionSizer
	cooldowns  *CooldownTable
	log        *logger.Logger

	lastFullScan time.Time
	quickScans   int

	stopOnce sync.Once
	stopCh   chan struct{}

	now func() time.Time
}

func NewSupervisor(
	cfg SupervisorConfig,
	schedCfg SchedulerConfig,
	deps SupervisorDeps,
	status *models.BotStatus,
	scanner *Scanner,
	classifier *analytics.Classifier,
	engine *indicators.Engine,
	generator *Generator,
	gate *Gate,
	sizer *PositionSizer,
	cooldowns *CooldownTable,
	log *logger.Logger,
) *Supervisor {
	s := &Supervisor{
		cfg:        cfg,
		deps:       deps,
		status:     status,
		scanner:    scanner,
		classifier: classifier,
		engine:     engine,
		generator:  generator,
		gate:       gate,
		sizer:      sizer,
		cooldowns:  cooldowns,
		log:        log,
		stopCh:     make(chan struct{}),
		now:        time.Now,
	}
	s.scheduler = NewScheduler(schedCfg, s.probeRegime, scanner.BreakoutScan, log)
	return s
}

// Run drives the loop until the context is cancelled, Stop is called, or the
// consecutive-error ceiling is reached. The returned error is nil for a clean
// shutdown and the last cycle error when the loop stops itself.
func (s *Supervisor) Run(ctx context.Context) error {
	s.status.SetState(models.LoopStarting)
	s.log.Info("control loop starting",
		logger.String("strategy", string(s.status.Strategy())),
		logger.String("default_symbol", s.cfg.DefaultSymbol))

	if err := s.deps.Stream.Connect(ctx); err != nil {
		s.log.Warn("initial venue connection failed", logger.Error(err))
		s.status.SetConnected(false)
	} else {
		s.status.SetConnected(true)
	}
	s.refreshRegime(ctx)
	s.status.SetState(models.LoopRunning)

	consecutive := 0
	for {
		if s.stopped(ctx) {
			s.status.SetState(models.LoopStopped)
			s.log.Info("control loop stopped")
			return nil
		}

		next, _ := s.status.NextScanAt()
		due, reason := s.scheduler.ShouldScan(ctx, next, s.status.Regime().Regime)
		if !due {
			if !s.sleep(ctx, s.cfg.Tick) {
				continue
			}
			continue
		}

		start := s.now()
		s.log.Info("scan cycle starting", logger.String("reason", reason))
		err := s.cycle(ctx)
		s.deps.Metrics.RecordCycleDuration(s.now().Sub(start).Seconds())

		if err != nil {
			consecutive++
			s.status.RecordError(err)
			s.deps.Metrics.RecordError(errorKind(err))
			if auditErr := s.deps.Audit.ErrorEvent(ctx, errorKind(err), err.Error(), "error"); auditErr != nil {
				s.log.Warn("audit error event failed", logger.Error(auditErr))
			}
			if consecutive >= s.cfg.MaxConsecutiveErrors {
				s.status.SetState(models.LoopStopped)
				s.log.Error("error ceiling reached, stopping",
					logger.Int("consecutive_errors", consecutive), logger.Error(err))
				return err
			}
			backoff := s.backoffDelay(consecutive)
			s.status.SetState(models.LoopErrorBackoff)
			s.log.Warn("cycle failed, backing off",
				logger.Int("consecutive_errors", consecutive),
				logger.Duration("backoff", backoff),
				logger.Error(err))
			s.sleep(ctx, backoff)
			continue
		}

		if consecutive > 0 {
			s.log.Info("recovered after errors", logger.Int("had_errors", consecutive))
		}
		consecutive = 0
		s.status.SetState(models.LoopRunning)
		s.scheduleNext()
	}
}

// Stop requests a clean shutdown. Safe to call more than once.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// ForceScan makes the next wakeup scan immediately.
func (s *Supervisor) ForceScan() {
	s.status.ForceScan(s.now())
}

// SetStrategyMode switches the active strategy. Takes effect next cycle.
func (s *Supervisor) SetStrategyMode(mode models.StrategyMode) {
	s.status.SetStrategy(mode)
	s.log.Info("strategy switched", logger.String("mode", string(mode)))
}

// cycle runs one monitor-decide-act pass: connectivity, regime refresh, the
// appropriate scan, then at most one signal through the gate to execution.
func (s *Supervisor) cycle(ctx context.Context) error {
	if err := s.ensureConnected(ctx); err != nil {
		return err
	}
	s.refreshRegime(ctx)

	opps, kind, err := s.collectOpportunities(ctx)
	if err != nil {
		return err
	}
	s.deps.Metrics.RecordScan(kind)

	regime := s.status.Regime()
	target, ok := s.pickTarget(opps, regime)
	if !ok {
		return nil
	}
	return s.decideAndExecute(ctx, target, regime)
}

// ensureConnected checks the venue stream and attempts one reconnect. A
// failed reconnect is a cycle error and feeds the backoff path.
func (s *Supervisor) ensureConnected(ctx context.Context) error {
	if s.deps.Stream.IsConnected() {
		s.status.SetConnected(true)
		return nil
	}
	s.log.Warn("venue stream down, reconnecting")
	if err := s.deps.Stream.Reconnect(ctx); err != nil {
		s.status.SetConnected(false)
		return models.ConnectivityError("reconnect venue stream", err)
	}
	s.status.SetConnected(true)
	s.log.Info("venue stream reconnected")
	return nil
}

// refreshRegime re-measures volatility from the reference instrument and
// reclassifies. Failures keep the previous regime; stale data never blocks
// the loop.
func (s *Supervisor) refreshRegime(ctx context.Context) {
	hourly, err := s.scanner.fetchCandles(ctx, s.cfg.DefaultSymbol, repository.TF1h, 30)
	if err != nil {
		s.log.Debug("hourly candles unavailable for regime check", logger.Error(err))
		return
	}
	fine, err := s.scanner.fetchCandles(ctx, s.cfg.DefaultSymbol, repository.TF5m, 150)
	if err != nil {
		s.log.Debug("fine candles unavailable for regime check", logger.Error(err))
		return
	}
	metrics, ok := analytics.MeasureInputs(hourly, fine)
	if !ok {
		return
	}
	regime := s.classifier.Classify(metrics)
	prev := s.status.Regime()
	s.status.SetRegime(models.RegimeState{
		Regime:    regime,
		Hunting:   prev.Hunting,
		Metrics:   metrics,
		CheckedAt: s.now(),
	})
	s.deps.Metrics.RecordRegime(string(regime))
	if regime != prev.Regime {
		s.log.Info("market regime changed",
			logger.String("from", string(prev.Regime)),
			logger.String("to", string(regime)))
	}
}

// probeRegime is the scheduler's between-scan regime check.
func (s *Supervisor) probeRegime(ctx context.Context) (models.Regime, error) {
	s.refreshRegime(ctx)
	return s.status.Regime().Regime, nil
}

// collectOpportunities picks the scan kind and runs it. A full scan always
// wins when it is overdue, when too many quick scans ran back to back, or
// when the breakout sweep comes up empty.
func (s *Supervisor) collectOpportunities(ctx context.Context) ([]models.Opportunity, string, error) {
	now := s.now()
	regime := s.status.Regime()
	wantBreakout := regime.Hunting ||
		regime.Regime == models.RegimeVolatile ||
		regime.Regime == models.RegimeExtreme

	fullOverdue := s.lastFullScan.IsZero() || now.Sub(s.lastFullScan) >= s.cfg.FullScanInterval
	if wantBreakout && !fullOverdue && s.quickScans < s.cfg.MaxQuickScans {
		opps, err := s.scanner.BreakoutScan(ctx)
		if err != nil {
			return nil, "breakout", err
		}
		if len(opps) > 0 {
			s.quickScans++
			return opps, "breakout", nil
		}
		// Empty breakout sweep falls through to a full scan.
	}

	opps, err := s.scanner.FullScan(ctx)
	if err != nil {
		return nil, "full", err
	}
	s.lastFullScan = now
	s.quickScans = 0
	return opps, "full", nil
}

// pickTarget chooses the single instrument this cycle acts on. An empty scan
// falls back to the reference instrument, rate limited by its own cooldown.
// In hunting mode weak opportunities are watched but not traded.
func (s *Supervisor) pickTarget(opps []models.Opportunity, regime models.RegimeState) (string, bool) {
	if len(opps) == 0 {
		if !s.cooldowns.TryFallback(s.now()) {
			return "", false
		}
		s.log.Debug("no opportunities, falling back to reference instrument",
			logger.String("symbol", s.cfg.DefaultSymbol))
		return s.cfg.DefaultSymbol, true
	}
	top := opps[0]
	if regime.Hunting && top.Score < s.cfg.HuntingScoreMin {
		s.log.Debug("hunting mode: top opportunity below trade bar",
			logger.String("symbol", top.Symbol),
			logger.Float64("score", top.Score))
		return "", false
	}
	return top.Symbol, true
}

// decideAndExecute evaluates the active strategy on fresh candles for one
// instrument and, if the gate clears a BUY or SELL, sizes and executes it.
func (s *Supervisor) decideAndExecute(ctx context.Context, symbol string, regime models.RegimeState) error {
	tf := repository.TF5m
	if regime.Hunting {
		tf = repository.TF1m
	}
	series, err := s.scanner.fetchCandles(ctx, symbol, tf, 100)
	if err != nil {
		return err
	}

	sentiment, err := s.deps.Sentiment.GetSentiment(ctx)
	if err != nil {
		s.log.Debug("sentiment unavailable, assuming neutral", logger.Error(err))
		sentiment = models.SentimentNeutral
	}

	set := s.engine.Compute(symbol, series)
	s.deps.Metrics.RecordLastPrice(symbol, set.CurrentPrice)

	action, reason := s.generator.Generate(s.status.Strategy(), set, sentiment, s.status.Risk())
	decision := models.TradeDecision{
		Symbol:     symbol,
		Action:     action,
		Reason:     reason,
		Price:      set.CurrentPrice,
		Indicators: set,
		Strategy:   s.status.Strategy(),
		CreatedAt:  s.now(),
	}

	decision, emit := s.gate.Clear(ctx, decision)
	if !emit {
		return nil
	}
	s.status.RecordDecision(decision)
	s.deps.Metrics.RecordSignal(string(decision.Action))
	if err := s.deps.Audit.SignalEmitted(ctx, decision); err != nil {
		s.log.Warn("signal audit failed", logger.Error(err))
	}
	s.log.Info("signal emitted",
		logger.String("symbol", decision.Symbol),
		logger.String("action", string(decision.Action)),
		logger.String("reason", decision.Reason))

	if decision.Action == models.ActionHold {
		return nil
	}
	return s.execute(ctx, decision)
}

// execute sizes and places one order, then folds the outcome into risk
// state. Sizing shortfalls skip the trade without failing the cycle.
func (s *Supervisor) execute(ctx context.Context, d models.TradeDecision) error {
	qty, err := s.sizer.Size(ctx, d)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			s.log.Warn("trade skipped", logger.Error(err))
			return nil
		}
		return err
	}

	res, err := s.deps.Executor.Execute(ctx, d, qty)
	if err != nil {
		return err
	}

	quantity, _ := qty.Float64()
	outcome := models.TradeOutcome{
		Symbol:    d.Symbol,
		Action:    d.Action,
		Quantity:  quantity,
		FillPrice: res.FillPrice,
		FillValue: res.FillValue,
		Fee:       res.Fee,
		Success:   res.Status == "FILLED",
		ClosedAt:  s.now(),
	}
	if d.Action == models.ActionSell {
		// Proceeds minus fees approximate the realized move until the
		// portfolio ledger reconciles fills.
		outcome.ProfitLoss = res.FillValue - res.Fee
	}
	s.status.ApplyOutcome(outcome)
	if err := s.deps.Audit.TradeOutcome(ctx, outcome); err != nil {
		s.log.Warn("trade audit failed", logger.Error(err))
	}
	s.log.Info("order executed",
		logger.String("symbol", d.Symbol),
		logger.String("action", string(d.Action)),
		logger.String("status", res.Status),
		logger.Float64("fill_value", res.FillValue))
	return nil
}

// scheduleNext computes the next scan time from the current regime and risk
// state and records it for external surfaces.
func (s *Supervisor) scheduleNext() {
	regime := s.status.Regime()
	interval, hunting := s.scheduler.Interval(regime, s.status.Risk())
	if hunting != regime.Hunting {
		regime.Hunting = hunting
		s.status.SetRegime(regime)
		if hunting {
			s.log.Info("hunting mode engaged")
		} else {
			s.log.Info("hunting mode released")
		}
	}
	s.status.SetSchedule(s.now().Add(interval), interval)
}

// backoffDelay doubles from the base per consecutive error, capped.
func (s *Supervisor) backoffDelay(consecutive int) time.Duration {
	d := s.cfg.BackoffBase
	for i := 1; i < consecutive; i++ {
		d *= 2
		if d >= s.cfg.BackoffMax {
			return s.cfg.BackoffMax
		}
	}
	if d > s.cfg.BackoffMax {
		return s.cfg.BackoffMax
	}
	return d
}

// sleep waits up to d, returning false if the loop should stop instead.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-t.C:
		return true
	}
}

func (s *Supervisor) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// errorKind buckets an error for metrics and audit.
func errorKind(err error) string {
	switch {
	case models.IsConnectivity(err):
		return "connectivity"
	case models.IsRateLimited(err):
		return "rate_limited"
	default:
		return "internal"
	}
}
