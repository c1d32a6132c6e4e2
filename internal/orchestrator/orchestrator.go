// Package orchestrator drives the periodic fetch → cache → persist →
// compute → broadcast cycle over every configured (symbol, timeframe) pair,
// and serves the read path (bars, current signal, diagnostics) off the
// shared cache.
package orchestrator

import (
	"context"
	"log"
	"time"

	"marketpulse/internal/barcache"
	"marketpulse/internal/indicator"
	"marketpulse/internal/marketdata/fetch"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/notification"
	"marketpulse/internal/signal"
	"marketpulse/internal/store"
)

// Per-pair fetch sizes: coarse bars are scarcer upstream, so hour-scale
// timeframes request a deeper history to stabilize the indicators.
const (
	fetchLimitMinute = 300
	fetchLimitHour   = 400
)

// Store is the persistence collaborator: idempotent insert plus the
// cold-start fallback query.
type Store interface {
	InsertBars(ctx context.Context, symbol string, tf model.Timeframe, bars []model.Bar) error
	LatestN(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Bar, error)
}

// Broadcaster delivers a signal payload to all current subscribers of the
// logical signal channel. Implementations must not block the caller.
type Broadcaster interface {
	BroadcastSignal(key string, payload []byte)
}

// Config holds the orchestrator's tunables.
type Config struct {
	Symbols    []string
	Timeframes []model.Timeframe

	// Interval between passes.
	Interval time.Duration

	// WarmupBars is the minimum cached series length before a pair is
	// computed and broadcast.
	WarmupBars int
}

// Orchestrator owns one periodic polling loop. Construct with New, run
// with Run; request handlers share it concurrently through the read path.
type Orchestrator struct {
	cfg      Config
	fetcher  *fetch.Fetcher
	cache    *barcache.Cache
	store    Store // may be nil (persistence disabled)
	breaker  *store.Breaker
	engine   *indicator.Engine
	signals  *signal.Engine
	bcast    Broadcaster
	notifier notification.Notifier // may be nil
	prom     *metrics.Metrics      // may be nil
}

// New wires an Orchestrator. store, notifier and prom are optional.
func New(cfg Config, fetcher *fetch.Fetcher, cache *barcache.Cache, st Store, bcast Broadcaster) *Orchestrator {
	if cfg.WarmupBars <= 0 {
		cfg.WarmupBars = 60
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   cache,
		store:   st,
		breaker: store.NewBreaker(5, 30*time.Second),
		engine:  indicator.NewEngine(),
		signals: signal.NewEngine(),
		bcast:   bcast,
	}
}

// SetNotifier attaches a strong-signal notifier.
func (o *Orchestrator) SetNotifier(n notification.Notifier) { o.notifier = n }

// SetMetrics attaches Prometheus metrics.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) {
	o.prom = m
	o.fetcher.Metrics = m
}

// WarmupBars returns the configured warm-up threshold.
func (o *Orchestrator) WarmupBars() int { return o.cfg.WarmupBars }

// Run primes the cache with one immediate pass, then repeats every
// interval until ctx is cancelled. The current pair is finished (or its
// fetch abandoned via ctx) on shutdown; cache state is never left torn.
func (o *Orchestrator) Run(ctx context.Context) {
	log.Printf("[orchestrator] polling %d symbols × %d timeframes every %v",
		len(o.cfg.Symbols), len(o.cfg.Timeframes), o.cfg.Interval)

	o.runPass(ctx)

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[orchestrator] stopped")
			return
		case <-ticker.C:
			o.runPass(ctx)
		}
	}
}

// runPass processes every configured pair once. Pairs touch disjoint cache
// keys, so ordering between them carries no guarantees.
func (o *Orchestrator) runPass(ctx context.Context) {
	start := time.Now()
	for _, symbol := range o.cfg.Symbols {
		for _, tf := range o.cfg.Timeframes {
			if ctx.Err() != nil {
				return
			}
			o.processPair(ctx, symbol, tf)
		}
	}
	if o.prom != nil {
		o.prom.PassDur.Observe(time.Since(start).Seconds())
		o.prom.CachedBars.Set(float64(o.cache.TotalBars()))
	}
}

// processPair runs one fetch → cache → persist → compute → broadcast cycle.
// The fetch (network I/O, possibly a full retry/backoff sequence) happens
// before any cache lock is taken; only the in-memory upsert locks.
func (o *Orchestrator) processPair(ctx context.Context, symbol string, tf model.Timeframe) {
	limit := fetchLimitMinute
	if tf.HourScale() {
		limit = fetchLimitHour
	}

	fetchStart := time.Now()
	bars := o.fetcher.Fetch(ctx, symbol, tf, limit)
	if o.prom != nil {
		o.prom.FetchDur.Observe(time.Since(fetchStart).Seconds())
	}
	if len(bars) == 0 {
		// Normal outcome: market closed, unsupported tier, unknown symbol.
		if o.prom != nil {
			o.prom.PairsSkipped.Inc()
		}
		return
	}

	key := model.CacheKey(symbol, tf)
	appended := o.cache.Upsert(key, bars)
	if o.prom != nil {
		o.prom.BarsIngested.Add(float64(appended))
	}

	o.persist(ctx, symbol, tf, bars)

	if o.cache.Len(key) < o.cfg.WarmupBars {
		// Warm-up unmet: silently skip compute/broadcast this cycle.
		if o.prom != nil {
			o.prom.PairsSkipped.Inc()
		}
		return
	}

	sig, err := o.SignalFor(ctx, symbol, tf)
	if err != nil {
		return
	}

	o.bcast.BroadcastSignal(key, sig.JSON())
	if o.prom != nil {
		o.prom.Broadcasts.Inc()
		o.prom.SignalsComputed.WithLabelValues(string(tf)).Inc()
	}
	log.Printf("[orchestrator] %s %s: %s (%s) conf=%.2f", symbol, tf, sig.Strength, sig.Trend, sig.Confidence)

	o.notifyStrong(sig)
}

// persist hands the fetched bars to the snapshot store. Failures are
// logged and counted but never abort the in-memory update or the signal
// computation.
func (o *Orchestrator) persist(ctx context.Context, symbol string, tf model.Timeframe, bars []model.Bar) {
	if o.store == nil {
		return
	}
	err := o.breaker.Do(func() error {
		return o.store.InsertBars(ctx, symbol, tf, bars)
	})
	if err != nil {
		if err != store.ErrOpen {
			log.Printf("[orchestrator] persist %s %s: %v", symbol, tf, err)
		}
		if o.prom != nil {
			o.prom.PersistFailures.Inc()
		}
	}
	if o.prom != nil {
		v := 0.0
		if o.breaker.Open() {
			v = 1.0
		}
		o.prom.BreakerOpen.Set(v)
	}
}

// notifyStrong fires a best-effort alert for strong signals.
func (o *Orchestrator) notifyStrong(sig *model.Signal) {
	if o.notifier == nil {
		return
	}
	if sig.Strength != model.StrengthStrongBuy && sig.Strength != model.StrengthStrongSell {
		return
	}
	alert := notification.Alert{
		Title:   string(sig.Strength) + " " + sig.Symbol,
		Message: string(sig.Trend) + " " + string(sig.Timeframe),
		Payload: sig.JSON(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.notifier.Send(ctx, alert); err != nil {
			log.Printf("[orchestrator] notify: %v", err)
		}
	}()
}
