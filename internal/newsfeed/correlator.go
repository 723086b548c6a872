// Package newsfeed correlates news articles with candle buckets and
// manages the paginated news listing behind the dashboard feed.
package newsfeed

import (
	"sort"

	"tradevision/internal/model"
)

// Correlate assigns each news item to its nearest candle and groups
// same-bucket items into a single marker.
//
// Items published outside the candle series time range are excluded.
// Nearest means smallest absolute time difference; on an exact tie the
// earlier candle wins. Each marker's NewsIDs preserves the relative order
// of the input items. Markers come back sorted ascending by candle time,
// the order chart renderers require.
//
// O(candles × news); fine at dashboard scale (thousands × hundreds).
func Correlate(candles []model.Candle, news []model.NewsItem) []model.Marker {
	if len(candles) == 0 || len(news) == 0 {
		return nil
	}

	first := candles[0].Time
	last := candles[len(candles)-1].Time

	byBucket := make(map[int64]*model.Marker)
	for _, item := range news {
		ts := item.PublishTime.Unix()
		if ts < first || ts > last {
			continue
		}

		best := candles[0].Time
		bestDist := absDiff(ts, best)
		for _, c := range candles[1:] {
			if d := absDiff(ts, c.Time); d < bestDist {
				bestDist = d
				best = c.Time
			}
		}

		m, ok := byBucket[best]
		if !ok {
			m = &model.Marker{CandleTime: best}
			byBucket[best] = m
		}
		m.NewsIDs = append(m.NewsIDs, item.ID)
	}

	markers := make([]model.Marker, 0, len(byBucket))
	for _, m := range byBucket {
		markers = append(markers, *m)
	}
	sort.Slice(markers, func(i, j int) bool {
		return markers[i].CandleTime < markers[j].CandleTime
	})
	return markers
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
