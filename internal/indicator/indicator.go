// Package indicator computes technical indicator series over close prices.
//
// Unlike streaming engines that keep incremental state, these functions
// recompute the whole series from scratch on every call. The candle series
// is mutated in arbitrary ways by live ticks and symbol switches, so a
// stateless full recompute is the only update policy that stays correct
// under every mutation pattern.
package indicator

import "fmt"

// Indicator kinds.
const (
	KindSMA = "SMA"
	KindEMA = "EMA"
)

// Value is one point of an indicator series. Valid is false while the
// lookback window is not yet filled (the first period-1 points).
type Value struct {
	Float64 float64
	Valid   bool
}

// Point is a time-aligned indicator value ready for a chart line series.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Compute dispatches to the indicator implementation for kind.
func Compute(kind string, closes []float64, period int) ([]Value, error) {
	switch kind {
	case KindSMA:
		return SMA(closes, period), nil
	case KindEMA:
		return EMA(closes, period), nil
	default:
		return nil, fmt.Errorf("unknown indicator kind %q", kind)
	}
}

// Line pairs candle times with computed values and drops the invalid
// leading points, producing the series a chart line renderer consumes.
func Line(times []int64, values []Value) []Point {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if values[i].Valid {
			points = append(points, Point{Time: times[i], Value: values[i].Float64})
		}
	}
	return points
}

// Preset describes one overlay configuration offered by the dashboard.
type Preset struct {
	Kind   string
	Period int
	Color  string
	Name   string
}

// Overlay presets matching the dashboard defaults.
var (
	SMAPresets = []Preset{
		{Kind: KindSMA, Period: 10, Color: "#2196F3", Name: "SMA 10"},
		{Kind: KindSMA, Period: 20, Color: "#2196F3", Name: "SMA 20"},
		{Kind: KindSMA, Period: 50, Color: "#1976D2", Name: "SMA 50"},
	}
	EMAPresets = []Preset{
		{Kind: KindEMA, Period: 12, Color: "#FF9800", Name: "EMA 12"},
		{Kind: KindEMA, Period: 26, Color: "#FF9800", Name: "EMA 26"},
		{Kind: KindEMA, Period: 50, Color: "#F57C00", Name: "EMA 50"},
	}
)
