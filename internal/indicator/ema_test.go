package indicator

import (
	"math"
	"testing"
)

func TestEMA_SMASeed(t *testing.T) {
	// period 3 over [1,2,3,4,5]:
	// index 0,1 invalid; index 2 = mean(1,2,3) = 2.0;
	// index 3 = (4-2.0)*0.5 + 2.0 = 3.0; index 4 = (5-3.0)*0.5 + 3.0 = 4.0
	out := EMA([]float64{1, 2, 3, 4, 5}, 3)
	if len(out) != 5 {
		t.Fatalf("expected len 5, got %d", len(out))
	}
	if out[0].Valid || out[1].Valid {
		t.Errorf("indices 0,1 should be invalid: %+v", out[:2])
	}
	want := []float64{0, 0, 2.0, 3.0, 4.0}
	for i := 2; i < 5; i++ {
		if !out[i].Valid {
			t.Fatalf("index %d should be valid", i)
		}
		if math.Abs(out[i].Float64-want[i]) > 1e-9 {
			t.Errorf("index %d: expected %.4f, got %.4f", i, want[i], out[i].Float64)
		}
	}
}

func TestEMA_RecurrenceAgainstDirect(t *testing.T) {
	closes := []float64{10, 11, 9, 12, 14, 13, 15, 16, 12, 11, 13}
	period := 4
	out := EMA(closes, period)

	// Direct recomputation with the same seed rule.
	mult := 2.0 / float64(period+1)
	var seed float64
	for i := 0; i < period; i++ {
		seed += closes[i]
	}
	ema := seed / float64(period)
	for i := period - 1; i < len(closes); i++ {
		if i > period-1 {
			ema = (closes[i]-ema)*mult + ema
		}
		if !out[i].Valid {
			t.Fatalf("index %d should be valid", i)
		}
		if math.Abs(out[i].Float64-ema) > 1e-9 {
			t.Errorf("index %d: expected %.6f, got %.6f", i, ema, out[i].Float64)
		}
	}
}

func TestEMA_PermissiveEdges(t *testing.T) {
	if out := EMA(nil, 3); len(out) != 0 {
		t.Errorf("empty input: expected empty series, got %d points", len(out))
	}
	if out := EMA([]float64{1, 2}, 0); len(out) != 0 {
		t.Errorf("period 0: expected empty series, got %d points", len(out))
	}
}

func TestCompute_Dispatch(t *testing.T) {
	closes := []float64{1, 2, 3, 4}

	sma, err := Compute(KindSMA, closes, 2)
	if err != nil {
		t.Fatalf("SMA dispatch: %v", err)
	}
	if !sma[1].Valid || sma[1].Float64 != 1.5 {
		t.Errorf("SMA dispatch: expected 1.5 at index 1, got %+v", sma[1])
	}

	ema, err := Compute(KindEMA, closes, 2)
	if err != nil {
		t.Fatalf("EMA dispatch: %v", err)
	}
	if !ema[1].Valid {
		t.Errorf("EMA dispatch: expected valid at index 1")
	}

	if _, err := Compute("RSI", closes, 14); err == nil {
		t.Error("expected error for unknown indicator kind")
	}
}

func TestLine_DropsInvalid(t *testing.T) {
	times := []int64{100, 160, 220, 280}
	values := []Value{{}, {}, {Float64: 1.5, Valid: true}, {Float64: 2.5, Valid: true}}

	points := Line(times, values)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Time != 220 || points[0].Value != 1.5 {
		t.Errorf("unexpected first point: %+v", points[0])
	}
	if points[1].Time != 280 || points[1].Value != 2.5 {
		t.Errorf("unexpected second point: %+v", points[1])
	}
}
