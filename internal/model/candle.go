package model

// Candle is one OHLCV aggregate over a fixed interval bucket.
// Time is the bucket start in Unix seconds, matching the chart time axis.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// ApplyPrice folds a live trade price into the candle: the close always
// moves, high/low stretch only when the price escapes the current range.
func (c *Candle) ApplyPrice(price float64) {
	c.Close = price
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
}

// RawCandle is an OHLCV point as delivered by a history source, before
// normalization. Timestamp is kept as float64 milliseconds so that NaN or
// otherwise garbage timestamps survive decoding long enough to be filtered.
type RawCandle struct {
	Timestamp float64 `json:"timestamp"` // epoch ms
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// HistoryQuery identifies one historical candle window request.
type HistoryQuery struct {
	Symbol    string
	Interval  string
	Limit     int
	StartTime int64 // epoch ms, 0 = unset
	EndTime   int64 // epoch ms, 0 = unset
}
