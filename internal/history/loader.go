// Package history loads historical OHLCV windows with a primary→fallback
// source strategy and normalizes raw points into a chart-ready series.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"tradevision/internal/interval"
	"tradevision/internal/model"
)

// minPrimaryCandles is the minimum viable window: a primary result smaller
// than this triggers the fallback source instead of returning a partial
// chart. Fixed, not user-configurable.
const minPrimaryCandles = 50

var (
	// ErrNoData signals a successful fetch that produced zero usable candles.
	ErrNoData = errors.New("no historical data available")

	// ErrLoadFailed signals a transport-level failure on every source tried.
	ErrLoadFailed = errors.New("failed to load chart data")
)

// Loader fetches candle history from a primary store and falls back to a
// live-exchange-backed source when the primary window is too small.
// Each Load call is independent; callers discard superseded results.
type Loader struct {
	primary  model.HistorySource
	fallback model.HistorySource
	log      *slog.Logger

	// Backfill, when set, receives fallback results so the primary store
	// catches up for the next load. Write failures are logged, not fatal.
	Backfill model.CandleWriter

	// Metrics hooks (optional).
	OnLoad     func(source string)
	OnFallback func()
}

// NewLoader creates a history loader over the two sources.
func NewLoader(primary, fallback model.HistorySource, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{primary: primary, fallback: fallback, log: log}
}

// Load fetches, normalizes and returns the candle window for (symbol, tf).
// The fallback source is consulted at most once, and only when the primary
// errors or returns fewer than the minimum viable number of candles.
func (l *Loader) Load(ctx context.Context, symbol, tf string, limit int) ([]model.Candle, error) {
	intervalMS, err := interval.DurationMS(tf)
	if err != nil {
		return nil, err
	}

	q := model.HistoryQuery{Symbol: symbol, Interval: tf, Limit: limit}

	raw, primaryErr := l.primary.History(ctx, q)
	if primaryErr != nil {
		l.log.Warn("primary history source failed",
			"source", l.primary.Name(), "symbol", symbol, "interval", tf, "err", primaryErr)
	}

	source := l.primary.Name()
	fromFallback := false
	if primaryErr != nil || len(raw) < minPrimaryCandles {
		l.log.Info("primary window insufficient, falling back",
			"source", l.fallback.Name(), "symbol", symbol, "interval", tf, "primary_count", len(raw))
		if l.OnFallback != nil {
			l.OnFallback()
		}

		raw, err = l.fallback.History(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, l.fallback.Name(), err)
		}
		source = l.fallback.Name()
		fromFallback = true
	}

	candles := Normalize(raw, intervalMS)
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	if l.OnLoad != nil {
		l.OnLoad(source)
	}
	l.log.Debug("history loaded",
		"source", source, "symbol", symbol, "interval", tf, "candles", len(candles))

	if fromFallback && l.Backfill != nil {
		if err := l.Backfill.WriteCandles(ctx, symbol, tf, candles); err != nil {
			l.log.Warn("backfill write failed", "symbol", symbol, "interval", tf, "err", err)
		}
	}

	return candles, nil
}

// Normalize converts raw history points into a strictly ascending,
// duplicate-free candle series: points with NaN/Inf timestamps are
// dropped, timestamps are floored to second-resolution bucket starts,
// the series is sorted ascending and deduplicated keeping the first
// occurrence per bucket.
func Normalize(raw []model.RawCandle, intervalMS int64) []model.Candle {
	candles := make([]model.Candle, 0, len(raw))
	for _, p := range raw {
		if math.IsNaN(p.Timestamp) || math.IsInf(p.Timestamp, 0) || p.Timestamp < 0 {
			continue
		}
		candles = append(candles, model.Candle{
			Time:   interval.BucketStartSec(int64(p.Timestamp), intervalMS),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time < candles[j].Time
	})

	deduped := candles[:0]
	var lastTime int64 = -1
	for _, c := range candles {
		if c.Time == lastTime {
			continue
		}
		deduped = append(deduped, c)
		lastTime = c.Time
	}
	return deduped
}
