package indicator

// SMA computes the Simple Moving Average series over closes.
// The first period-1 points are invalid (insufficient lookback); every
// later point is the arithmetic mean of the trailing window. Output length
// equals input length. A non-positive period or empty input yields an
// empty series rather than an error.
//
// The input is never mutated; a fresh output slice is allocated per call.
func SMA(closes []float64, period int) []Value {
	if period <= 0 || len(closes) == 0 {
		return nil
	}

	out := make([]Value, len(closes))
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = Value{Float64: sum / float64(period), Valid: true}
		}
	}
	return out
}
