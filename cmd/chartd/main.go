package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"tradevision/config"
	"tradevision/internal/chart"
	"tradevision/internal/feed"
	"tradevision/internal/history"
	"tradevision/internal/indicator"
	"tradevision/internal/logger"
	"tradevision/internal/marketdata/binance"
	"tradevision/internal/marketdata/rest"
	"tradevision/internal/metrics"
	"tradevision/internal/model"
	"tradevision/internal/newsfeed"
	redisstore "tradevision/internal/store/redis"
	sqlitestore "tradevision/internal/store/sqlite"
)

const symbolKey = "selected_symbol"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[chartd] starting...")

	cfg := config.Load()
	slogger := logger.Init("chartd", logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown context ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Local candle store (primary-side persistence + settings) ----
	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[chartd] sqlite init failed: %v", err)
	}
	defer store.Close()
	log.Println("[chartd] sqlite store ready")

	// ---- Redis (optional history cache) ----
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[chartd] WARNING: redis unavailable: %v (continuing without cache)", err)
		rdb = nil
	} else {
		log.Println("[chartd] redis cache ready")
	}
	health.StartLivenessChecker(ctx, rdb, store.DB(), 10*time.Second)

	// ---- History sources ----
	// Primary: dashboard REST API (store-backed). Fallback: Binance klines,
	// wrapped in the Redis response cache when Redis is up. Fallback results
	// are backfilled into the local sqlite store.
	api := rest.NewClient(cfg.APIBaseURL, slogger)

	var fallback model.HistorySource = binance.NewSource(cfg.BinanceAPIKey, cfg.BinanceSecretKey, slogger)
	if rdb != nil {
		fallback = redisstore.NewCache(rdb, fallback, 0, slogger)
	}

	loader := history.NewLoader(api.HistorySource(), fallback, slogger)
	loader.Backfill = store
	loader.OnLoad = func(source string) { prom.HistoryLoads.WithLabelValues(source).Inc() }
	loader.OnFallback = func() { prom.HistoryFallbacks.Inc() }

	// ---- Chart pipeline ----
	pipeline := chart.NewPipeline(loader, logRenderer{log: slogger, rendered: prom.RendersTotal}, slogger)
	pipeline.HistoryLimit = cfg.HistoryLimit
	pipeline.OnStaleLoad = func() { prom.StaleLoadsDiscarded.Inc() }
	pipeline.SetIndicators([]indicator.Preset{indicator.SMAPresets[1], indicator.EMAPresets[1]})

	// ---- Restore last viewed symbol ----
	symbol := cfg.Symbol
	if saved, ok, err := store.KV().Load(ctx, symbolKey); err == nil && ok {
		symbol = saved
		log.Printf("[chartd] restored symbol %s", symbol)
	}

	// Validate against the supported list when the API is reachable.
	if symbols, err := api.Symbols(ctx); err == nil && !contains(symbols, symbol) {
		log.Printf("[chartd] symbol %s not supported, using %s", symbol, cfg.Symbol)
		symbol = cfg.Symbol
	}

	loadStart := time.Now()
	err = pipeline.SetMarket(ctx, symbol, cfg.Interval)
	prom.HistoryLoadDur.Observe(time.Since(loadStart).Seconds())
	if err != nil {
		// The chart shows the error state; ticks still flow once data returns.
		slogger.Error("initial history load failed", "symbol", symbol, "interval", cfg.Interval, "err", err)
	}
	if err := store.KV().Save(ctx, symbolKey, symbol); err != nil {
		slogger.Warn("failed to persist symbol", "err", err)
	}

	// ---- Live price feed ----
	feedClient := feed.NewClient(cfg.WSURL, slogger)
	feedClient.OnQuote = func(sym string, q feed.Quote) {
		prom.PriceUpdates.Inc()
		health.SetLastTickTime(time.Now())
		health.SetWSConnected(true)
		pipeline.ApplyTick(model.PriceTick{
			Symbol:    sym,
			Price:     q.Price,
			Timestamp: q.Timestamp,
		})
	}
	feedClient.OnReconnect = func() {
		prom.FeedReconnects.Inc()
		health.SetWSConnected(false)
	}
	feedClient.SetSymbol(symbol)
	if err := feedClient.Connect(); err != nil {
		slogger.Warn("feed connect failed, reconnect scheduled", "err", err)
	} else {
		health.SetWSConnected(true)
	}

	// ---- News feed + poller ----
	newsFeed := newsfeed.NewFeed(newsAPI{api}, cfg.NewsLimit)
	if _, err := newsFeed.LoadNext(ctx); err != nil {
		slogger.Warn("initial news load failed", "err", err)
	} else {
		pipeline.SetNews(newsFeed.Items())
	}

	poller, err := newsfeed.NewPoller(newsFeed, cfg.NewsRefresh, slogger)
	if err != nil {
		log.Fatalf("[chartd] invalid NEWS_REFRESH %q: %v", cfg.NewsRefresh, err)
	}
	poller.OnRefresh = func() { prom.NewsRefreshes.Inc() }
	poller.OnChange = func(items []model.NewsItem) { pipeline.SetNews(items) }
	poller.Start()

	// ---- Latest AI insights, logged at startup ----
	if insights, err := api.LatestInsights(ctx, 5); err == nil {
		for _, in := range insights {
			slogger.Info("ai insight",
				"symbol", in.Symbol, "sentiment", in.Sentiment,
				"prediction", in.Prediction, "confidence", in.Confidence)
		}
	}

	// ---- Realtime price poll (REST), complements the socket feed ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick, err := api.RealtimePrice(ctx, symbol)
				if err != nil {
					slogger.Debug("realtime price poll failed", "err", err)
					continue
				}
				pipeline.ApplyTick(tick)
			}
		}
	}()

	log.Printf("[chartd] ready: symbol=%s interval=%s api=%s ws=%s",
		symbol, cfg.Interval, cfg.APIBaseURL, cfg.WSURL)

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[chartd] shutdown signal received, cleaning up...")
	cancel()

	feedClient.Close()
	poller.Stop()
	pipeline.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	if rdb != nil {
		rdb.Close()
	}

	log.Println("[chartd] shutdown complete.")
}

// logRenderer is the headless renderer: each snapshot becomes one log line
// summarizing what a chart view would draw.
type logRenderer struct {
	log      *slog.Logger
	rendered prometheus.Counter
}

func (r logRenderer) Render(snap chart.Snapshot) {
	if r.rendered != nil {
		r.rendered.Inc()
	}
	overlays := make([]string, len(snap.Overlays))
	for i, o := range snap.Overlays {
		overlays[i] = o.Name
	}
	var last float64
	if len(snap.Candles) > 0 {
		last = snap.Candles[len(snap.Candles)-1].Close
	}
	r.log.Info("chart updated",
		"symbol", snap.Symbol, "interval", snap.Interval,
		"candles", len(snap.Candles), "close", last,
		"overlays", strings.Join(overlays, ","), "markers", len(snap.Markers))
}

// newsAPI adapts the REST client to the news source port.
type newsAPI struct {
	c *rest.Client
}

func (n newsAPI) News(ctx context.Context, limit, page int) (model.NewsPage, error) {
	return n.c.News(ctx, limit, page)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
