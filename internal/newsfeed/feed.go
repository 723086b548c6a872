package newsfeed

import (
	"context"
	"fmt"
	"sync"

	"tradevision/internal/model"
)

// Feed accumulates pages of the news listing for infinite scroll.
// Pages are 1-based; HasNext derives from totalLoadedSoFar < total.
type Feed struct {
	source model.NewsSource
	limit  int

	mu    sync.Mutex
	items []model.NewsItem
	total int
	page  int // last loaded page, 0 = nothing loaded yet
}

// NewFeed creates a feed over the news source with a fixed page size.
func NewFeed(source model.NewsSource, limit int) *Feed {
	if limit <= 0 {
		limit = 20
	}
	return &Feed{source: source, limit: limit}
}

// LoadNext fetches and appends the next page. It reports whether more
// pages remain after this one. Calling it when no pages remain is a no-op.
func (f *Feed) LoadNext(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.page > 0 && len(f.items) >= f.total {
		f.mu.Unlock()
		return false, nil
	}
	next := f.page + 1
	f.mu.Unlock()

	page, err := f.source.News(ctx, f.limit, next)
	if err != nil {
		return false, fmt.Errorf("load news page %d: %w", next, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, page.Items...)
	f.total = page.Total
	f.page = next
	return len(f.items) < f.total, nil
}

// Refresh reloads page 1 and discards everything accumulated so far.
// Used by the background poller to pick up newly published articles.
func (f *Feed) Refresh(ctx context.Context) error {
	page, err := f.source.News(ctx, f.limit, 1)
	if err != nil {
		return fmt.Errorf("refresh news: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items[:0:0], page.Items...)
	f.total = page.Total
	f.page = 1
	return nil
}

// HasNext reports whether more pages remain (or nothing was loaded yet).
func (f *Feed) HasNext() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page == 0 || len(f.items) < f.total
}

// Items returns a copy of everything accumulated so far, in arrival order.
func (f *Feed) Items() []model.NewsItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.NewsItem, len(f.items))
	copy(out, f.items)
	return out
}

// Total returns the server-reported total article count.
func (f *Feed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}
