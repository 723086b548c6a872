package model

import "time"

// NewsItem is one published news article. ID is the join key back to the
// detail view and to AI insights.
type NewsItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	FullText    string    `json:"fullText"`
	Tickers     []string  `json:"tickers,omitempty"`
	Source      string    `json:"source"`
	PublishTime time.Time `json:"publishTime"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// NewsPage is one page of the paginated news listing. Page numbers are
// 1-based.
type NewsPage struct {
	Items []NewsItem `json:"news"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// Marker anchors one or more news items to a candle bucket.
// NewsIDs preserves the arrival order of the correlated items.
type Marker struct {
	CandleTime int64   `json:"candleTime"`
	NewsIDs    []int64 `json:"newsIds"`
}
