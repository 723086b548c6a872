// Package rest is the client for the dashboard's REST collaborator API:
// candle history (with its Binance-proxied variant), symbols, realtime
// price, news and AI insights. Every payload travels in a
// {success, data, message} envelope; failures become typed errors at this
// boundary instead of leaking transport details upward.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradevision/internal/model"
)

// Client talks to the REST API at a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a REST client. baseURL is e.g. "http://host:3000/api".
func NewClient(baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// envelope is the API's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("rest: build request %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest: %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("rest: decode %s: %w", path, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("rest: %s: %s", path, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("rest: unmarshal %s: %w", path, err)
	}
	return nil
}

func historyQuery(q model.HistoryQuery) url.Values {
	v := url.Values{}
	v.Set("symbol", q.Symbol)
	v.Set("interval", q.Interval)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.StartTime > 0 {
		v.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	if q.EndTime > 0 {
		v.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}
	return v
}

// HistoryAPI adapts one of the history endpoints to model.HistorySource.
type HistoryAPI struct {
	c    *Client
	path string
	name string
}

// HistorySource returns the primary, store-backed history endpoint.
func (c *Client) HistorySource() *HistoryAPI {
	return &HistoryAPI{c: c, path: "/market/history", name: "db"}
}

// BinanceHistorySource returns the Binance-proxied history endpoint used
// as the fallback when the store window is too small.
func (c *Client) BinanceHistorySource() *HistoryAPI {
	return &HistoryAPI{c: c, path: "/market/history/binance", name: "binance-proxy"}
}

func (h *HistoryAPI) History(ctx context.Context, q model.HistoryQuery) ([]model.RawCandle, error) {
	var raw []model.RawCandle
	if err := h.c.get(ctx, h.path, historyQuery(q), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (h *HistoryAPI) Name() string { return h.name }

// RealtimePrice fetches the current price snapshot for a symbol.
func (c *Client) RealtimePrice(ctx context.Context, symbol string) (model.PriceTick, error) {
	v := url.Values{}
	v.Set("symbol", symbol)
	var tick model.PriceTick
	if err := c.get(ctx, "/market/realtime", v, &tick); err != nil {
		return model.PriceTick{}, err
	}
	return tick, nil
}

// Symbols fetches the supported trading symbols.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := c.get(ctx, "/market/symbols", nil, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// News fetches one page of the news listing. Pages are 1-based.
func (c *Client) News(ctx context.Context, limit, page int) (model.NewsPage, error) {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("page", strconv.Itoa(page))
	var out model.NewsPage
	if err := c.get(ctx, "/news/latest", v, &out); err != nil {
		return model.NewsPage{}, err
	}
	return out, nil
}

// Insights fetches AI insights, optionally filtered by symbol.
func (c *Client) Insights(ctx context.Context, symbol string, limit int) ([]model.AIInsight, error) {
	v := url.Values{}
	if symbol != "" {
		v.Set("symbol", symbol)
	}
	v.Set("limit", strconv.Itoa(limit))
	var out []model.AIInsight
	if err := c.get(ctx, "/ai/insights", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestInsights fetches the newest AI insights across all symbols.
func (c *Client) LatestInsights(ctx context.Context, limit int) ([]model.AIInsight, error) {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	var out []model.AIInsight
	if err := c.get(ctx, "/ai/insights/latest", v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsightsByNews fetches the AI insights attached to one news article.
func (c *Client) InsightsByNews(ctx context.Context, newsID int64) ([]model.AIInsight, error) {
	path := "/ai/insights/news/" + strconv.FormatInt(newsID, 10)
	var out []model.AIInsight
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
