package history

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"tradevision/internal/model"
)

// fakeSource returns a canned response and counts calls.
type fakeSource struct {
	name  string
	raw   []model.RawCandle
	err   error
	calls int
}

func (f *fakeSource) History(_ context.Context, _ model.HistoryQuery) ([]model.RawCandle, error) {
	f.calls++
	return f.raw, f.err
}

func (f *fakeSource) Name() string { return f.name }

func rawSeries(n int, startMS int64, stepMS int64) []model.RawCandle {
	out := make([]model.RawCandle, n)
	for i := range out {
		ts := startMS + int64(i)*stepMS
		out[i] = model.RawCandle{Timestamp: float64(ts), Open: 1, High: 2, Low: 0.5, Close: 1.5}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLoad_FallbackOnShortPrimary(t *testing.T) {
	primary := &fakeSource{name: "db", raw: rawSeries(10, 60_000, 60_000)}
	fallback := &fakeSource{name: "binance", raw: rawSeries(100, 60_000, 60_000)}
	loader := NewLoader(primary, fallback, discardLogger())

	fallbacks := 0
	loader.OnFallback = func() { fallbacks++ }

	candles, err := loader.Load(context.Background(), "BTCUSDT", "1m", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("expected exactly 1 fallback call, got %d", fallback.calls)
	}
	if fallbacks != 1 {
		t.Errorf("expected OnFallback once, got %d", fallbacks)
	}
	if len(candles) != 100 {
		t.Errorf("expected fallback result (100 candles), got %d", len(candles))
	}
}

func TestLoad_NoFallbackWhenPrimarySufficient(t *testing.T) {
	primary := &fakeSource{name: "db", raw: rawSeries(50, 60_000, 60_000)}
	fallback := &fakeSource{name: "binance", raw: rawSeries(500, 60_000, 60_000)}
	loader := NewLoader(primary, fallback, discardLogger())

	candles, err := loader.Load(context.Background(), "BTCUSDT", "1m", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("expected no fallback call, got %d", fallback.calls)
	}
	if len(candles) != 50 {
		t.Errorf("expected 50 candles, got %d", len(candles))
	}
}

func TestLoad_FallbackOnPrimaryError(t *testing.T) {
	primary := &fakeSource{name: "db", err: errors.New("connection refused")}
	fallback := &fakeSource{name: "binance", raw: rawSeries(60, 60_000, 60_000)}
	loader := NewLoader(primary, fallback, discardLogger())

	candles, err := loader.Load(context.Background(), "ETHUSDT", "5m", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("expected 1 fallback call, got %d", fallback.calls)
	}
	if len(candles) != 60 {
		t.Errorf("expected 60 candles, got %d", len(candles))
	}
}

func TestLoad_BothSourcesFail(t *testing.T) {
	primary := &fakeSource{name: "db", err: errors.New("down")}
	fallback := &fakeSource{name: "binance", err: errors.New("also down")}
	loader := NewLoader(primary, fallback, discardLogger())

	_, err := loader.Load(context.Background(), "BTCUSDT", "1h", 1000)
	if !errors.Is(err, ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
}

func TestLoad_EmptyResultIsDistinctError(t *testing.T) {
	primary := &fakeSource{name: "db"}
	fallback := &fakeSource{name: "binance"}
	loader := NewLoader(primary, fallback, discardLogger())

	_, err := loader.Load(context.Background(), "BTCUSDT", "1h", 1000)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if errors.Is(err, ErrLoadFailed) {
		t.Error("empty result must not be reported as a transport failure")
	}
}

func TestLoad_UnsupportedInterval(t *testing.T) {
	primary := &fakeSource{name: "db", raw: rawSeries(100, 0, 60_000)}
	loader := NewLoader(primary, &fakeSource{name: "binance"}, discardLogger())

	if _, err := loader.Load(context.Background(), "BTCUSDT", "7m", 1000); err == nil {
		t.Fatal("expected configuration error for unsupported interval")
	}
	if primary.calls != 0 {
		t.Error("interval must be validated before any fetch")
	}
}

type fakeWriter struct {
	calls   int
	symbol  string
	candles []model.Candle
}

func (w *fakeWriter) WriteCandles(_ context.Context, symbol, _ string, candles []model.Candle) error {
	w.calls++
	w.symbol = symbol
	w.candles = candles
	return nil
}

func TestLoad_BackfillOnFallbackOnly(t *testing.T) {
	primary := &fakeSource{name: "db", raw: rawSeries(60, 60_000, 60_000)}
	fallback := &fakeSource{name: "binance", raw: rawSeries(100, 60_000, 60_000)}
	loader := NewLoader(primary, fallback, discardLogger())
	writer := &fakeWriter{}
	loader.Backfill = writer

	if _, err := loader.Load(context.Background(), "BTCUSDT", "1m", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if writer.calls != 0 {
		t.Errorf("primary load must not backfill, got %d writes", writer.calls)
	}

	primary.raw = rawSeries(5, 60_000, 60_000)
	if _, err := loader.Load(context.Background(), "BTCUSDT", "1m", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if writer.calls != 1 {
		t.Errorf("fallback load should backfill once, got %d writes", writer.calls)
	}
	if len(writer.candles) != 100 {
		t.Errorf("expected 100 backfilled candles, got %d", len(writer.candles))
	}
}

func TestNormalize_SortDedupRoundTrip(t *testing.T) {
	// Shuffled series with one exact duplicate timestamp.
	raw := []model.RawCandle{
		{Timestamp: 180_000, Close: 3},
		{Timestamp: 60_000, Close: 1},
		{Timestamp: 120_000, Close: 2},
		{Timestamp: 120_000, Close: 99}, // duplicate; first occurrence wins
		{Timestamp: 240_000, Close: 4},
	}
	candles := Normalize(raw, 60_000)

	if len(candles) != 4 {
		t.Fatalf("expected 4 distinct candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Time <= candles[i-1].Time {
			t.Fatalf("series not strictly ascending at %d: %v", i, candles)
		}
	}
	// The duplicate bucket keeps the first occurrence after the stable sort.
	if candles[1].Time != 120 || candles[1].Close != 2 {
		t.Errorf("expected first occurrence of bucket 120 (close=2), got %+v", candles[1])
	}
}

func TestNormalize_DropsGarbageTimestamps(t *testing.T) {
	raw := []model.RawCandle{
		{Timestamp: math.NaN(), Close: 1},
		{Timestamp: math.Inf(1), Close: 2},
		{Timestamp: -60_000, Close: 3},
		{Timestamp: 60_000, Close: 4},
	}
	candles := Normalize(raw, 60_000)
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if candles[0].Time != 60 || candles[0].Close != 4 {
		t.Errorf("unexpected survivor: %+v", candles[0])
	}
}

func TestNormalize_BucketsToSeconds(t *testing.T) {
	raw := []model.RawCandle{{Timestamp: 3_661_000, Close: 1}} // 01:01:01 in ms
	candles := Normalize(raw, 3_600_000)
	if candles[0].Time != 3600 {
		t.Errorf("expected bucket start 3600s, got %d", candles[0].Time)
	}
}
