// Package binance adapts the Binance klines API to the history source
// port, serving as the live-exchange-backed fallback when the local store
// has an insufficient window.
package binance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"

	"tradevision/internal/model"
)

// Source fetches klines from Binance. Public market data needs no API
// keys; pass empty strings unless authenticated limits are required.
type Source struct {
	client *gobinance.Client
	log    *slog.Logger
}

// NewSource creates a Binance-backed history source.
func NewSource(apiKey, secretKey string, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{client: gobinance.NewClient(apiKey, secretKey), log: log}
}

func (s *Source) Name() string { return "binance" }

// History fetches raw candles for the query. Klines with unparseable
// prices are skipped with a warning rather than failing the whole window.
func (s *Source) History(ctx context.Context, q model.HistoryQuery) ([]model.RawCandle, error) {
	svc := s.client.NewKlinesService().
		Symbol(strings.ToUpper(q.Symbol)).
		Interval(q.Interval)
	if q.Limit > 0 {
		svc.Limit(q.Limit)
	}
	if q.StartTime > 0 {
		svc.StartTime(q.StartTime)
	}
	if q.EndTime > 0 {
		svc.EndTime(q.EndTime)
	}

	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", q.Symbol, q.Interval, err)
	}

	raw := make([]model.RawCandle, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			s.log.Warn("skipping malformed kline", "symbol", q.Symbol, "err", err)
			continue
		}
		raw = append(raw, candle)
	}
	return raw, nil
}

func parseKline(k *gobinance.Kline) (model.RawCandle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return model.RawCandle{}, fmt.Errorf("open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return model.RawCandle{}, fmt.Errorf("high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return model.RawCandle{}, fmt.Errorf("low %q: %w", k.Low, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return model.RawCandle{}, fmt.Errorf("close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return model.RawCandle{}, fmt.Errorf("volume %q: %w", k.Volume, err)
	}
	return model.RawCandle{
		Timestamp: float64(k.OpenTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}
