package indicator

// EMA computes the Exponential Moving Average series over closes.
// The first period-1 points are invalid; the point at period-1 is seeded
// with the SMA of the first period closes, and every later point follows
//
//	ema[i] = (closes[i] - ema[i-1]) * (2 / (period+1)) + ema[i-1]
//
// The SMA seed (rather than a first-value seed) is part of the contract:
// downstream charts pin exact values against it. Edge cases match SMA:
// non-positive period or empty input yields an empty series.
func EMA(closes []float64, period int) []Value {
	if period <= 0 || len(closes) == 0 {
		return nil
	}

	out := make([]Value, len(closes))
	multiplier := 2.0 / float64(period+1)

	var sum, ema float64
	for i, c := range closes {
		switch {
		case i < period-1:
			sum += c
		case i == period-1:
			sum += c
			ema = sum / float64(period)
			out[i] = Value{Float64: ema, Valid: true}
		default:
			ema = (c-ema)*multiplier + ema
			out[i] = Value{Float64: ema, Valid: true}
		}
	}
	return out
}
