package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"marketpulse/config"
	"marketpulse/internal/barcache"
	"marketpulse/internal/gateway"
	"marketpulse/internal/marketdata"
	"marketpulse/internal/marketdata/fetch"
	"marketpulse/internal/marketdata/marketstack"
	"marketpulse/internal/marketdata/storepoll"
	"marketpulse/internal/metrics"
	"marketpulse/internal/notification"
	"marketpulse/internal/orchestrator"
	redisstore "marketpulse/internal/store/redis"
	sqlitestore "marketpulse/internal/store/sqlite"
)

// multiBroadcaster fans a signal payload out to every attached sink.
type multiBroadcaster []orchestrator.Broadcaster

func (m multiBroadcaster) BroadcastSignal(key string, payload []byte) {
	for _, b := range m {
		b.BroadcastSignal(key, payload)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[signalserver] starting...")

	cfg := config.Load()
	symbols := cfg.ParseSymbols()
	timeframes := cfg.ParseTimeframes()
	if len(symbols) == 0 {
		log.Fatalf("[signalserver] no symbols configured")
	}
	log.Printf("[signalserver] universe: %v × %v", symbols, timeframes)

	// ---- Metrics & health listener ----
	prom := metrics.New()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr)
	metricsSrv.Start()

	// ---- SQLite snapshot store ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	store, err := sqlitestore.New(sqlitestore.Config{Path: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[signalserver] sqlite init failed: %v", err)
	}
	defer store.Close()
	log.Println("[signalserver] snapshot store ready")

	// ---- Ingestion source ----
	var src marketdata.Source
	switch cfg.Source {
	case "store":
		src = storepoll.New(store)
		log.Println("[signalserver] source: snapshot store poll")
	default:
		src = marketstack.New(marketstack.Config{
			BaseURL: cfg.MarketstackBase,
			APIKey:  cfg.MarketstackKey,
		})
		log.Println("[signalserver] source: marketstack intraday API")
	}

	// ---- Optional Redis mirror ----
	var pub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		pub, err = redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[signalserver] WARNING: redis init failed: %v (continuing without redis)", err)
			pub = nil
		}
	}

	// ---- Pipeline ----
	hub := gateway.NewHub()
	hub.OnClientCount = func(n int) { prom.WSClients.Set(float64(n)) }

	bcast := multiBroadcaster{hub}
	if pub != nil {
		bcast = append(bcast, pub)
		defer pub.Close()
	}

	cache := barcache.New(cfg.CacheBars)
	fetcher := fetch.New(src)

	orch := orchestrator.New(orchestrator.Config{
		Symbols:    symbols,
		Timeframes: timeframes,
		Interval:   cfg.PollInterval(),
		WarmupBars: cfg.WarmupBars,
	}, fetcher, cache, store, bcast)
	orch.SetMetrics(prom)

	if cfg.WebhookURL != "" {
		orch.SetNotifier(notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[signalserver] strong-signal webhook enabled")
	} else {
		orch.SetNotifier(notification.NewLogNotifier())
	}

	// ---- HTTP surface ----
	mux := http.NewServeMux()
	deps := gateway.Deps{
		Hub:          hub,
		Pipeline:     orch,
		Store:        store,
		Symbols:      symbols,
		Timeframes:   timeframes,
		CORSOrigins:  cfg.ParseCORSOrigins(),
		ProcessStart: time.Now(),
	}
	if pub != nil {
		deps.Redis = pub
	}
	gateway.RegisterRoutes(mux, deps)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("[signalserver] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[signalserver] http server: %v", err)
		}
	}()

	go orch.Run(ctx)

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[signalserver] shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[signalserver] http shutdown: %v", err)
	}
	metricsSrv.Close()

	log.Println("[signalserver] stopped")
}
