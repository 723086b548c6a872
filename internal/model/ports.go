package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the chart pipeline from concrete data access
// implementations (REST API, Binance, SQLite, Redis cache).

// HistorySource serves raw OHLCV points for a (symbol, interval) window.
type HistorySource interface {
	// History fetches raw candles for the query. Points may be unsorted,
	// duplicated or carry garbage timestamps; the history loader
	// normalizes them.
	History(ctx context.Context, q HistoryQuery) ([]RawCandle, error)

	// Name identifies the source in logs and metrics.
	Name() string
}

// CandleWriter persists normalized candles, used to backfill the local
// store after a fallback load.
type CandleWriter interface {
	WriteCandles(ctx context.Context, symbol, tf string, candles []Candle) error
}

// NewsSource serves the paginated news listing.
type NewsSource interface {
	News(ctx context.Context, limit, page int) (NewsPage, error)
}

// InsightSource serves AI-generated market insights.
type InsightSource interface {
	Insights(ctx context.Context, symbol string, limit int) ([]AIInsight, error)
	LatestInsights(ctx context.Context, limit int) ([]AIInsight, error)
	InsightsByNews(ctx context.Context, newsID int64) ([]AIInsight, error)
}

// KVStore is the persistence port for small client-side selections
// (e.g. the last viewed symbol) that survive restarts.
type KVStore interface {
	// Load returns the stored value and whether the key was present.
	Load(ctx context.Context, key string) (string, bool, error)

	// Save stores the value, overwriting any previous one.
	Save(ctx context.Context, key, value string) error
}
