// Package chart owns the candle series for one (symbol, interval) at a
// time and derives everything the renderer needs from it: the merged
// series, indicator overlays and news markers.
package chart

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tradevision/internal/history"
	"tradevision/internal/indicator"
	"tradevision/internal/interval"
	"tradevision/internal/model"
	"tradevision/internal/newsfeed"
)

// Overlay is one computed indicator line.
type Overlay struct {
	Name   string
	Color  string
	Points []indicator.Point
}

// Snapshot is the full render state handed to the renderer after every
// change. Slices are fresh copies; the renderer may keep them.
type Snapshot struct {
	Symbol   string
	Interval string
	Candles  []model.Candle
	Overlays []Overlay
	Markers  []model.Marker
}

// Renderer consumes pipeline output. Implemented by the charting layer.
type Renderer interface {
	Render(snap Snapshot)
}

// DefaultHistoryLimit is the candle window requested per market switch.
const DefaultHistoryLimit = 1000

// Pipeline is the real-time chart pipeline. History loads replace the
// series, live ticks patch or extend it, and indicators plus markers are
// recomputed in full on every change. A session ID captured per load
// discards results that arrive after the market has switched again.
type Pipeline struct {
	loader   *history.Loader
	renderer Renderer
	log      *slog.Logger

	// HistoryLimit overrides DefaultHistoryLimit when positive.
	HistoryLimit int

	// OnStaleLoad is a metrics hook fired when a superseded history load
	// result is discarded (optional).
	OnStaleLoad func()

	mu         sync.Mutex
	session    uuid.UUID
	closed     bool
	loading    bool
	lastErr    error
	symbol     string
	tf         string
	intervalMS int64
	candles    []model.Candle
	news       []model.NewsItem
	presets    []indicator.Preset
}

// NewPipeline creates a pipeline rendering through the given renderer.
func NewPipeline(loader *history.Loader, renderer Renderer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		loader:   loader,
		renderer: renderer,
		log:      log,
		session:  uuid.New(),
	}
}

// SetMarket switches the pipeline to a new (symbol, interval) pair and
// loads its history. An unsupported interval fails fast before any fetch.
// If the market switches again while the load is in flight, the late
// result is discarded silently.
func (p *Pipeline) SetMarket(ctx context.Context, symbol, tf string) error {
	intervalMS, err := interval.DurationMS(tf)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	session := uuid.New()
	p.session = session
	p.symbol = symbol
	p.tf = tf
	p.intervalMS = intervalMS
	p.loading = true
	p.lastErr = nil
	limit := p.HistoryLimit
	p.mu.Unlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	candles, err := p.loader.Load(ctx, symbol, tf, limit)

	p.mu.Lock()
	if p.closed || p.session != session {
		p.mu.Unlock()
		if p.OnStaleLoad != nil {
			p.OnStaleLoad()
		}
		p.log.Debug("discarding stale history load", "symbol", symbol, "interval", tf)
		return nil
	}
	p.loading = false
	if err != nil {
		p.lastErr = err
		p.candles = nil
		p.mu.Unlock()
		return err
	}
	p.candles = candles
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.render(snap)
	return nil
}

// ApplyTick merges a live price into the series. The owning bucket is
// re-derived from the tick's timestamp: the current bucket is patched in
// place, a newer bucket opens a fresh candle, and a tick for an existing
// older bucket patches that bucket in place even if it already closed.
// Ticks for unknown older buckets and for other symbols are dropped.
func (p *Pipeline) ApplyTick(tick model.PriceTick) {
	p.mu.Lock()
	if p.closed || p.loading || len(p.candles) == 0 || !strings.EqualFold(tick.Symbol, p.symbol) {
		p.mu.Unlock()
		return
	}

	bucket := interval.BucketStartSec(tick.Timestamp, p.intervalMS)
	last := &p.candles[len(p.candles)-1]
	switch {
	case bucket == last.Time:
		last.ApplyPrice(tick.Price)
	case bucket > last.Time:
		p.candles = append(p.candles, model.Candle{
			Time: bucket,
			Open: tick.Price, High: tick.Price, Low: tick.Price, Close: tick.Price,
		})
	default:
		i := sort.Search(len(p.candles), func(i int) bool {
			return p.candles[i].Time >= bucket
		})
		if i >= len(p.candles) || p.candles[i].Time != bucket {
			p.mu.Unlock()
			return
		}
		p.candles[i].ApplyPrice(tick.Price)
	}

	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.render(snap)
}

// SetNews replaces the news list used for marker correlation.
func (p *Pipeline) SetNews(items []model.NewsItem) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.news = items
	if len(p.candles) == 0 {
		p.mu.Unlock()
		return
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.render(snap)
}

// SetIndicators replaces the enabled overlay configuration.
func (p *Pipeline) SetIndicators(presets []indicator.Preset) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.presets = presets
	if len(p.candles) == 0 {
		p.mu.Unlock()
		return
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.render(snap)
}

// Candles returns a copy of the current series.
func (p *Pipeline) Candles() []model.Candle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Candle, len(p.candles))
	copy(out, p.candles)
	return out
}

// Err returns the error of the last failed load, nil after a success.
// The caller renders it inline in the chart area.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Loading reports whether a history load is in flight.
func (p *Pipeline) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Close invalidates in-flight loads and stops all further rendering.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.session = uuid.New()
	p.mu.Unlock()
}

// snapshotLocked builds the render state. Caller holds p.mu.
func (p *Pipeline) snapshotLocked() Snapshot {
	candles := make([]model.Candle, len(p.candles))
	copy(candles, p.candles)

	times := make([]int64, len(p.candles))
	closes := make([]float64, len(p.candles))
	for i, c := range p.candles {
		times[i] = c.Time
		closes[i] = c.Close
	}

	overlays := make([]Overlay, 0, len(p.presets))
	for _, preset := range p.presets {
		values, err := indicator.Compute(preset.Kind, closes, preset.Period)
		if err != nil {
			p.log.Warn("skipping indicator", "name", preset.Name, "err", err)
			continue
		}
		overlays = append(overlays, Overlay{
			Name:   preset.Name,
			Color:  preset.Color,
			Points: indicator.Line(times, values),
		})
	}

	return Snapshot{
		Symbol:   p.symbol,
		Interval: p.tf,
		Candles:  candles,
		Overlays: overlays,
		Markers:  newsfeed.Correlate(p.candles, p.news),
	}
}

func (p *Pipeline) render(snap Snapshot) {
	if p.renderer != nil {
		p.renderer.Render(snap)
	}
}
